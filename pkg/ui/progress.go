package ui

import (
	"io"
	"os"
	"time"

	"github.com/cheggaaa/pb/v3"
	"golang.org/x/term"

	"kagglefetch/pkg/kaggle"
)

const downloadTemplate = `{{string . "prefix"}} {{counters . }} {{bar . "[" "█" "█" "░" "]"}} {{percent . }} {{speed . }}`

// DownloadBar renders byte progress for one archive download
type DownloadBar struct {
	bar *pb.ProgressBar
}

// NewDownloadBar starts a bar writing to w. A negative total means the size is
// unknown and only counters are shown.
func NewDownloadBar(w io.Writer, name string, total int64) *DownloadBar {
	if total < 0 {
		total = 0
	}
	bar := pb.New64(total).
		SetTemplate(pb.ProgressBarTemplate(downloadTemplate)).
		SetWriter(w).
		SetRefreshRate(250*time.Millisecond).
		Set(pb.Bytes, true).
		Set("prefix", name)
	bar.Start()
	return &DownloadBar{bar: bar}
}

// Wrap returns a reader that advances the bar as it is read
func (d *DownloadBar) Wrap(r io.Reader) io.Reader {
	return d.bar.NewProxyReader(r)
}

// Finish renders the final state and stops refreshing
func (d *DownloadBar) Finish() {
	d.bar.Finish()
}

// ProgressFactory returns a kaggle.ProgressFactory drawing bars on w
func ProgressFactory(w io.Writer) kaggle.ProgressFactory {
	return func(name string, total int64) kaggle.Progress {
		return NewDownloadBar(w, name, total)
	}
}

// ProgressEnabled reports whether bars should be drawn on stderr. Bars are
// never drawn in quiet mode or when stderr is redirected.
func ProgressEnabled(requested bool) bool {
	return requested && !IsQuietMode() && term.IsTerminal(int(os.Stderr.Fd()))
}
