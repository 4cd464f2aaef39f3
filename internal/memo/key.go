package memo

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
)

// Key builds a stable cache key from the distinguishing arguments of a call.
// Equal arguments always produce the same key.
func Key(args ...any) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = keyPart(arg)
	}

	return strings.Join(parts, ":")
}

func keyPart(arg any) string {
	switch v := arg.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(v)
	case int:
		return strconv.Itoa(v)
	case int64:
		return strconv.FormatInt(v, 10)
	case uint64:
		return strconv.FormatUint(v, 10)
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		// Tagged so a Stringer never collides with the scalar it prints as
		return fmt.Sprintf("%T(%s)", v, v.String())
	}

	// ConfigStd sorts map keys so composite values render deterministically
	b, err := sonic.ConfigStd.Marshal(arg)
	if err != nil {
		return fmt.Sprintf("%#v", arg)
	}

	return string(b)
}
