package assets

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// progressBar is an optional terminal bar drawn next to the status lines.  A nil bar does
// nothing, so callers needn't check.
type progressBar struct {
	p   *mpb.Progress
	bar *mpb.Bar
}

func newProgressBar(w io.Writer, total int) *progressBar {
	if total <= 0 {
		// mpb can't complete a bar with no total
		return nil
	}

	p := mpb.New(mpb.WithWidth(64), mpb.WithOutput(w))
	bar := p.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("assets:", decor.WC{C: decor.DindentRight | decor.DextraSpace}),
		),
		mpb.AppendDecorators(
			decor.CountersNoUnit("(%d/%d) "),
			decor.NewPercentage("%d"),
			decor.Spinner([]string{" /", " -", " \\", " |"}),
		),
	)
	return &progressBar{p: p, bar: bar}
}

func (pb *progressBar) increment() {
	if pb == nil {
		return
	}
	pb.bar.Increment()
}

// finish flushes the bar.  If the walk ended early the bar is aborted instead of waiting for a
// total that will never be reached.
func (pb *progressBar) finish() {
	if pb == nil {
		return
	}
	if !pb.bar.Completed() {
		pb.bar.Abort(false)
	}
	pb.p.Wait()
}
