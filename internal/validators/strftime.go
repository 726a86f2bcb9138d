package validators

import (
	"fmt"
	"strings"
	"unicode"
)

var strftimeLayouts = map[byte]string{
	'Y': "2006",
	'y': "06",
	'm': "01",
	'd': "02",
	'H': "15",
	'I': "03",
	'M': "04",
	'S': "05",
	'p': "PM",
	'b': "Jan",
	'h': "Jan",
	'B': "January",
	'a': "Mon",
	'A': "Monday",
	'j': "002",
	'z': "-0700",
	'Z': "MST",
}

// unpaddedLayouts replace the zero-padded elements when parsing, so "1/2020"
// matches %m/%Y. %Y stays four digits.
var unpaddedLayouts = map[byte]string{
	'm': "1",
	'd': "2",
	'I': "3",
	'M': "4",
	'S': "5",
}

// goLayoutTokens are substrings the time package would read as layout
// elements if they appeared in a literal part of the pattern.
var goLayoutTokens = []string{"Jan", "Mon", "MST", "PM", "pm"}

// StrftimeToLayout translates a strftime pattern such as "%m/%Y" into a
// time layout for formatting. Unsupported directives are an error.
func StrftimeToLayout(format string) (string, error) {
	return translateStrftime(format, false)
}

// StrftimeToParseLayout is StrftimeToLayout for parsing: month, day, hour,
// minute and second also match without a leading zero. A directive that
// directly follows another numeric one keeps its fixed width.
func StrftimeToParseLayout(format string) (string, error) {
	return translateStrftime(format, true)
}

func translateStrftime(format string, unpadded bool) (string, error) {
	if format == "" {
		return "", fmt.Errorf("empty date format")
	}
	var b strings.Builder
	var literal strings.Builder
	flush := func() error {
		lit := literal.String()
		literal.Reset()
		for _, r := range lit {
			if unicode.IsDigit(r) {
				return fmt.Errorf("date format %q: digits in literal text are not supported", format)
			}
		}
		for _, tok := range goLayoutTokens {
			if strings.Contains(lit, tok) {
				return fmt.Errorf("date format %q: literal %q is ambiguous", format, tok)
			}
		}
		b.WriteString(lit)
		return nil
	}

	for i := 0; i < len(format); i++ {
		c := format[i]
		if c != '%' {
			literal.WriteByte(c)
			continue
		}
		if i+1 >= len(format) {
			return "", fmt.Errorf("date format %q: trailing %%", format)
		}
		i++
		d := format[i]
		if d == '%' {
			literal.WriteByte('%')
			continue
		}
		layout, ok := strftimeLayouts[d]
		if !ok {
			return "", fmt.Errorf("date format %q: unsupported directive %%%c", format, d)
		}
		if err := flush(); err != nil {
			return "", err
		}
		if short, ok := unpaddedLayouts[d]; ok && unpadded && !endsWithDigit(b.String()) {
			layout = short
		}
		b.WriteString(layout)
	}
	if err := flush(); err != nil {
		return "", err
	}
	return b.String(), nil
}

func endsWithDigit(s string) bool {
	return s != "" && s[len(s)-1] >= '0' && s[len(s)-1] <= '9'
}
