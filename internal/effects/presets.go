package effects

// Band is one graphic equalizer band in Hz.
type Band struct {
	Low, High float64
}

var Bands = [10]Band{
	{20, 32}, {32, 63}, {63, 125}, {125, 250}, {250, 500},
	{500, 1000}, {1000, 2000}, {2000, 4000}, {4000, 8000}, {8000, 16000},
}

// None disables an effect group.
const None = "none"

// Gains per band in dB.
var equalizerPresets = map[string][10]float64{
	None:             {},
	"home-stereo":    {6, 6, 4.1, 4, 1.7, 2, 1.7, 4, 4.1, 6},
	"portable":       {8, 8, 5.4, 5, 2.7, 3, 2.3, 4, 3.6, 5},
	"car":            {8, 8, 4.8, 3, 0.1, 0, 0.7, 4, 4.8, 7},
	"tv":             {3, 3, 4.5, 8, 2.8, 0, 1.3, 6, 6.1, 8},
	"quality":        {2, 3, 2, -1, 0, 0, 1, 2, 1, 2},
	"bass-boost":     {6, 6, 6, 3, 0, 0, 0, 0, 0, 0},
	"bass-cut":       {-6, -6, -3, 0, 0, 0, 0, 0, 0, 0},
	"treble-boost":   {-6, -6, -3, 0, 0, 0, 3, 6, 6, 6},
	"treble-cut":     {3, 3, 0, 0, 0, 0, 0, -3, -6, -6},
	"loudness":       {6, 6, 3, 0, 0, 0, 0, 3, 6, 6},
	"lounge":         {-3, -3, -3, 0, 3, 3, 3, 3, 0, 0},
	"small-speakers": {3, 3, 3, 0, 0, 0, 0, 3, 6, 6},
	"spoken-word":    {-6, -6, -3, 0, 3, 3, 3, 3, 0, 0},
	"vocal-boost":    {0, 0, 0, 0, 3, 6, 6, 3, 0, 0},
	"classical":      {2, 2, 2, 2, 2, 2, 2, 2, 2, 2},
	"dance":          {6, 6, 3, 0, 0, 0, 0, 0, -6, -6},
	"deep":           {6, 6, 3, 0, 0, 0, 0, -3, -6, -6},
	"electronic":     {6, 6, 3, 0, 0, 0, 0, 3, 6, 6},
	"hip-hop":        {6, 6, 3, 0, 3, 3, 3, 0, 0, 0},
	"jazz":           {3, 3, 0, 0, 0, 3, 3, 0, 3, 3},
	"latin":          {0, 0, 0, 0, 3, 3, 3, 3, 6, 6},
	"piano":          {0, 0, 0, 0, 3, 3, 3, 3, 0, 0},
	"pop":            {-3, -3, -3, -3, 3, 3, 3, 3, -3, -3},
	"rnb":            {6, 6, 3, 0, 0, 0, 3, 3, 0, 0},
	"rock":           {3, 3, 3, 0, 0, 0, 0, 3, 3, 3},
}

// room is a simulated space: its dimensions in metres and wall absorption.
type room struct {
	dims       [3]float64
	absorption float64
}

// An outdoor room has no walls.
var environmentPresets = map[string]room{
	None:           {},
	"small-room":   {[3]float64{4, 5, 3}, 0.2},
	"bathroom":     {[3]float64{2, 3, 2.5}, 0.05},
	"classroom":    {[3]float64{10, 15, 4}, 0.3},
	"concert-hall": {[3]float64{50, 80, 20}, 0.4},
	"factory":      {[3]float64{40, 60, 15}, 0.1},
	"studio":       {[3]float64{5, 6, 3}, 0.8},
	"meeting-room": {[3]float64{8, 12, 3.5}, 0.5},
	"tunnel":       {[3]float64{3, 50, 4}, 0.02},
	"theatre":      {[3]float64{30, 40, 15}, 0.6},
	"outdoor":      {},
	"car":          {[3]float64{2, 3, 1.5}, 0.4},
	"atrium":       {[3]float64{50, 50, 30}, 0.2},
}

var positionPresets = map[string]struct{}{
	None:       {},
	"front":    {},
	"back":     {},
	"left":     {},
	"right":    {},
	"above":    {},
	"below":    {},
	"surround": {},
}
