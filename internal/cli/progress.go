package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/mvp-joe/scopeline/internal/fixture"
	"github.com/schollz/progressbar/v3"
)

// verifyProgress shows a progress bar while fixtures are verified.
type verifyProgress struct {
	quiet bool
	bar   *progressbar.ProgressBar
}

// newVerifyProgress creates a bar for total files writing to w. A quiet
// reporter does nothing.
func newVerifyProgress(w io.Writer, total int, quiet bool) *verifyProgress {
	p := &verifyProgress{quiet: quiet}
	if quiet || total == 0 {
		return p
	}

	p.bar = progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Verifying fixtures"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionSetItsString("files/s"),
		progressbar.OptionThrottle(65*time.Millisecond),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(w)
		}),
	)
	return p
}

// OnFileVerified advances the bar. Safe for concurrent use.
func (p *verifyProgress) OnFileVerified(*fixture.Report) {
	if p.bar != nil {
		p.bar.Add(1)
	}
}

// Finish completes the bar.
func (p *verifyProgress) Finish() {
	if p.bar != nil {
		p.bar.Finish()
	}
}

func formatNumber(n int) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}

	str := fmt.Sprintf("%d", n)
	var result string
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result += ","
		}
		result += string(c)
	}
	return result
}
