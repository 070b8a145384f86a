package archiver

import (
	"fmt"
	"time"
)

// humanDuration renders an elapsed time at the precision an operator
// scanning a log wants: plain seconds under a minute, minutes and seconds
// under an hour, and hours beyond that.
func humanDuration(d time.Duration) string {
	seconds := int(d.Seconds())
	switch {
	case seconds < 60:
		return fmt.Sprintf("%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%dm%ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%dh%dm%ds", seconds/3600, (seconds%3600)/60, seconds%60)
	}
}
