package scrape

import (
	"math"
	"regexp"
	"strconv"
	"strings"
)

var dollarAmount = regexp.MustCompile(`\$[0-9][0-9,.]*`)

// DefaultUSDToINR is the approximate conversion rate applied when none is
// configured.
const DefaultUSDToINR = 83

// RewriteDollars replaces every $-prefixed amount in a compensation string
// with its rupee equivalent at the given rate, formatted with Indian digit
// grouping. Strings without dollar amounts pass through unchanged.
func RewriteDollars(s string, usdToINR float64) string {
	if usdToINR <= 0 {
		usdToINR = DefaultUSDToINR
	}
	if !strings.Contains(s, "$") {
		return s
	}
	return dollarAmount.ReplaceAllStringFunc(s, func(match string) string {
		raw := strings.NewReplacer("$", "", ",", "").Replace(match)
		value, err := strconv.ParseFloat(strings.TrimSuffix(raw, "."), 64)
		if err != nil {
			return match
		}
		inr := int64(math.Round(value * usdToINR))
		return "₹" + formatIndian(inr)
	})
}

// formatIndian renders n with en-IN digit grouping: the last three digits
// form one group, every two digits above that form another (1234567 →
// 12,34,567).
func formatIndian(n int64) string {
	digits := strconv.FormatInt(n, 10)
	neg := false
	if strings.HasPrefix(digits, "-") {
		neg = true
		digits = digits[1:]
	}
	if len(digits) <= 3 {
		if neg {
			return "-" + digits
		}
		return digits
	}

	head := digits[:len(digits)-3]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	out := strings.Join(groups, ",") + "," + digits[len(digits)-3:]
	if neg {
		return "-" + out
	}
	return out
}
