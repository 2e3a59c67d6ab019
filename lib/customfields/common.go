package customfields

import (
	"strconv"
	"strings"
	"unicode"
)

// separateStr splits "123xy" into the leading number and the trailing suffix.
func separateStr(str string) (uint64, string, error) {
	str = strings.ToLower(strings.TrimSpace(str))
	pos := 0
	for ; pos < len(str); pos++ {
		if !unicode.IsDigit(rune(str[pos])) {
			break
		}
	}
	num, err := strconv.ParseUint(str[:pos], 10, 64)
	if err != nil {
		return 0, "", err
	}
	return num, str[pos:], nil
}
