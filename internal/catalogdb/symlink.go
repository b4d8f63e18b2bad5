package catalogdb

import (
	"os"
	"strings"

	"catalogfs/internal/pathutil"
)

// expandSymlink resolves $(VAR) references in a stored symlink target
// against envLookup, ported from SqlDirent::ExpandSymlink in the original
// source: an unterminated "$(" is copied through verbatim and an unknown
// variable expands to the empty string. The result is truncated to
// pathutil.MaxSymlinkLen to bound the growth a chain of expansions can
// produce.
func expandSymlink(raw string, envLookup func(string) (string, bool)) string {
	if !strings.Contains(raw, "$") {
		return raw
	}
	if envLookup == nil {
		envLookup = os.LookupEnv
	}

	var b strings.Builder
	for i := 0; i < len(raw); i++ {
		if raw[i] == '$' && i+1 < len(raw) && raw[i+1] == '(' {
			rpar := strings.IndexByte(raw[i+2:], ')')
			if rpar < 0 {
				b.WriteString("$(")
				i++ // skip the '(' only; loop increment skips past "$("
				continue
			}
			name := raw[i+2 : i+2+rpar]
			if v, ok := envLookup(name); ok {
				b.WriteString(v)
			}
			i = i + 2 + rpar // advance to the ')'
			continue
		}
		b.WriteByte(raw[i])
		if b.Len() >= pathutil.MaxSymlinkLen {
			break
		}
	}
	out := b.String()
	if len(out) > pathutil.MaxSymlinkLen {
		out = out[:pathutil.MaxSymlinkLen]
	}
	return out
}
