package common

import (
	"fmt"
	"runtime"

	"github.com/devlights/gomy/output"
)

// Assert panics with the formatted message when condition is false. Used
// for invariant violations that are programming bugs, not data errors: a
// header or directory max depth beyond its layout cap, or a bucket
// key/value type that is not fixed-width encodable.
func Assert(condition bool, format string, args ...any) {
	if condition {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if EnableDebug {
		dumpStack()
	}
	panic(msg)
}

// dumpStack prints every goroutine's stack trace, grounded on the
// teacher's RuntimeStack debug helper.
func dumpStack() {
	buf := make([]byte, 1<<16)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			output.Stdoutl("=== stack-all ===", string(buf[:n]))
			return
		}
		buf = make([]byte, 2*len(buf))
	}
}
