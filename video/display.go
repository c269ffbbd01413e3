package video

import (
	"gocv.io/x/gocv"

	"livecam/video/source"
)

// refresh paints the newest frame and re-arms itself on the display's event
// loop until the pipeline stops running.
func (p *Pipeline) refresh() {
	if !p.running.Load() {
		return
	}
	p.paint()
	p.display.Schedule(p.opts.RefreshPeriod, p.refresh)
}

// paint shows the latest processed frame, or the latest raw frame if nothing
// has been processed yet. It reports whether anything was painted.
func (p *Pipeline) paint() bool {
	kind := slotProcessed
	f, ok := p.processed.Peek()
	if !ok {
		kind = slotRaw
		if f, ok = p.raw.Peek(); !ok {
			return false
		}
	}
	defer f.Close()

	convertLayout(f, p.display.Layout())
	p.display.Paint(f)

	framesPainted.WithLabelValues(kind).Inc()
	p.painted.Add(1)
	return true
}

func convertLayout(f *source.Frame, want source.Layout) {
	if f.Layout == want {
		return
	}
	code := gocv.ColorBGRToRGB
	if want == source.LayoutBGR {
		code = gocv.ColorRGBToBGR
	}
	dst := gocv.NewMat()
	gocv.CvtColor(f.Mat, &dst, code)
	f.Replace(dst)
	f.Layout = want
}
