package media

import (
	"context"
	"fmt"
	"image"
	"image/draw"

	"github.com/GoldenFealla/framesync/internal/log"
	"github.com/sirupsen/logrus"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/sync/errgroup"
)

// Converter turns a decoded picture into a display-ready one of the given size.
type Converter interface {
	Convert(src image.Image, width, height int) (image.Image, error)
}

// ScaleConverter converts to RGBA, resampling with Scaler when the size changes.
type ScaleConverter struct {
	Scaler xdraw.Scaler
}

func (c ScaleConverter) Convert(src image.Image, width, height int) (image.Image, error) {
	if src == nil {
		return nil, fmt.Errorf("convert: source image is nil")
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("convert: invalid target size %dx%d", width, height)
	}

	dst := image.NewRGBA(image.Rect(0, 0, width, height))
	sb := src.Bounds()
	if sb.Dx() == width && sb.Dy() == height {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst, nil
	}

	scaler := c.Scaler
	if scaler == nil {
		scaler = xdraw.ApproxBiLinear
	}
	scaler.Scale(dst, dst.Bounds(), src, sb, xdraw.Src, nil)
	return dst, nil
}

// Pool is the frame processing stage: a fixed set of workers pulling raw frames from the
// intake queue, fitting them to the viewport and publishing them into the frame buffer.
type Pool struct {
	Queue     *FrameQueue
	Buffer    *FrameBuffer
	Viewport  *ViewportState
	Converter Converter
	Workers   int

	// SourceWidth and SourceHeight are the item's native dimensions.
	SourceWidth  int
	SourceHeight int

	Log *logrus.Entry
}

// Run blocks until the queue is closed or ctx is done.
func (p *Pool) Run(ctx context.Context) error {
	if p.Log == nil {
		p.Log = log.For("processor")
	}
	if p.Converter == nil {
		p.Converter = ScaleConverter{}
	}

	workers := max(1, p.Workers)
	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < workers; i++ {
		g.Go(func() error {
			return p.work(ctx)
		})
	}
	return g.Wait()
}

func (p *Pool) work(ctx context.Context) error {
	for {
		raw, ok := p.Queue.Pop()
		if !ok {
			return nil
		}
		if ctx.Err() != nil {
			return nil
		}

		// Queued before a seek.
		if raw.Epoch != p.Buffer.Epoch() {
			continue
		}

		f, err := p.Process(raw)
		if err != nil {
			p.Log.WithField("frame", raw.Index).Warnf("skip frame: %v", err)
			continue
		}
		p.Buffer.Put(f)
	}
}

// Process converts one raw frame for the current viewport.
func (p *Pool) Process(raw RawFrame) (ProcessedFrame, error) {
	srcW, srcH := p.SourceWidth, p.SourceHeight
	if raw.Image != nil && (srcW <= 0 || srcH <= 0) {
		srcW, srcH = raw.Image.Bounds().Dx(), raw.Image.Bounds().Dy()
	}

	w, h := FitSize(p.Viewport.Get(), srcW, srcH)
	img, err := p.Converter.Convert(raw.Image, w, h)
	if err != nil {
		return ProcessedFrame{}, err
	}

	return ProcessedFrame{
		Index: raw.Index,
		Epoch: raw.Epoch,
		Image: img,
	}, nil
}
