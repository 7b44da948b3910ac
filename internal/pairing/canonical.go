// Package pairing derives stable identities for a pair of devices.
//
// Device identifiers arrive in many shapes: bare numbers, dotted IPs, "ip:port"
// adb serials and "device_<ts>_<n>" names. PairID reduces each one to a short
// numeric key and joins the two keys in lexicographic order, so the result does
// not depend on argument order.
package pairing

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"unicode/utf16"
)

const pairPrefix = "pair_"

// PairID returns the canonical pair id "pair_<min>_<max>" for two devices.
//
// Keys are compared as strings, not numbers: "10" sorts before "9". Stored ids
// depend on this ordering, so changing it needs a data migration.
func PairID(a, b any) string {
	ka, kb := Key(a), Key(b)
	if kb < ka {
		ka, kb = kb, ka
	}
	return pairPrefix + ka + "_" + kb
}

// Key extracts the numeric key used for one side of a canonical pair id.
// It never fails: identifiers without digits fall back to a short hash.
func Key(device any) string {
	if n, ok := numeric(device); ok {
		return n
	}
	s := String(device)

	if i := strings.IndexByte(s, ':'); i >= 0 {
		if run := lastDigitRun(s[:i]); run != "" {
			return trimZeros(run)
		}
	}

	if strings.Contains(s, "_") {
		parts := strings.Split(s, "_")
		if last := parts[len(parts)-1]; isDigits(last) {
			return trimZeros(last)
		}
	}

	if run := lastDigitRun(s); run != "" {
		return trimZeros(run)
	}
	return strconv.FormatInt(fallbackHash(s), 10)
}

// String renders a device identifier the way it is stored in device_pairs.
func String(device any) string {
	switch v := device.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	}
	if n, ok := numeric(device); ok {
		return n
	}
	return fmt.Sprint(device)
}

// LegacyHash is the md5 of both raw identifiers sorted and joined with "_".
// Rows created before canonical ids existed are keyed by it.
func LegacyHash(a, b any) string {
	devices := []string{String(a), String(b)}
	sort.Strings(devices)
	sum := md5.Sum([]byte(strings.Join(devices, "_")))
	return hex.EncodeToString(sum[:])
}

// ParsePairID returns the two numeric keys of a canonical id, smallest first.
func ParsePairID(id string) (int, int, error) {
	a, b, ok := splitKeys(id)
	if !ok {
		return 0, 0, fmt.Errorf("pairing: invalid pair id %q", id)
	}
	return min(a, b), max(a, b), nil
}

// IsValidPairID reports whether id is a canonical id whose keys are in
// ascending numeric order.
func IsValidPairID(id string) bool {
	a, b, ok := splitKeys(id)
	return ok && a <= b
}

func splitKeys(id string) (int, int, bool) {
	rest, ok := strings.CutPrefix(id, pairPrefix)
	if !ok {
		return 0, 0, false
	}
	parts := strings.Split(rest, "_")
	if len(parts) < 2 {
		return 0, 0, false
	}
	a, errA := strconv.Atoi(parts[0])
	b, errB := strconv.Atoi(parts[1])
	if errA != nil || errB != nil {
		return 0, 0, false
	}
	return a, b, true
}

func numeric(device any) (string, bool) {
	switch v := device.(type) {
	case int:
		return strconv.Itoa(v), true
	case int8:
		return strconv.FormatInt(int64(v), 10), true
	case int16:
		return strconv.FormatInt(int64(v), 10), true
	case int32:
		return strconv.FormatInt(int64(v), 10), true
	case int64:
		return strconv.FormatInt(v, 10), true
	case uint:
		return strconv.FormatUint(uint64(v), 10), true
	case uint8:
		return strconv.FormatUint(uint64(v), 10), true
	case uint16:
		return strconv.FormatUint(uint64(v), 10), true
	case uint32:
		return strconv.FormatUint(uint64(v), 10), true
	case uint64:
		return strconv.FormatUint(v, 10), true
	case float32:
		return formatFloat(float64(v)), true
	case float64:
		return formatFloat(v), true
	case json.Number:
		if f, err := v.Float64(); err == nil {
			return formatFloat(f), true
		}
	}
	return "", false
}

// formatFloat prints the shortest decimal that round-trips, so integral
// floats above 2^53 render as "12345678901234567000", not their exact value.
func formatFloat(f float64) string {
	if f == math.Trunc(f) && math.Abs(f) < 1e21 {
		return strconv.FormatFloat(f, 'f', -1, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func lastDigitRun(s string) string {
	end := -1
	for i := len(s) - 1; i >= 0; i-- {
		if isDigit(s[i]) {
			end = i + 1
			break
		}
	}
	if end < 0 {
		return ""
	}
	start := end - 1
	for start > 0 && isDigit(s[start-1]) {
		start--
	}
	return s[start:end]
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !isDigit(s[i]) {
			return false
		}
	}
	return true
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// trimZeros drops leading zeros so "007" and "7" yield the same key.
func trimZeros(run string) string {
	t := strings.TrimLeft(run, "0")
	if t == "" {
		return "0"
	}
	return t
}

// fallbackHash is the 32-bit rolling hash (h*31 + c over UTF-16 code units),
// made non-negative and reduced modulo 10000.
func fallbackHash(s string) int64 {
	var h int32
	for _, c := range utf16.Encode([]rune(s)) {
		h = h*31 + int32(c)
	}
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v % 10000
}
