// Package postal detects the regional format of a starting postal code and
// generates a sequence of codes to sweep from it. Generated codes are
// plausible rather than verified; a code that does not geocode is simply
// skipped by the run.
package postal

import (
	"fmt"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
)

// Region identifies a supported postal code format.
type Region string

const (
	RegionCanada Region = "canada"
	RegionUSA    Region = "usa"
	RegionUK     Region = "uk"
)

var regionPatterns = []struct {
	region  Region
	pattern *regexp.Regexp
}{
	{RegionCanada, regexp.MustCompile(`^[A-Za-z]\d[A-Za-z] ?\d[A-Za-z]\d$`)},
	{RegionUSA, regexp.MustCompile(`^\d{5}(-\d{4})?$`)},
	{RegionUK, regexp.MustCompile(`^[A-Z]{1,2}\d[A-Z\d]? ?\d[A-Z]{2}$`)},
}

var canadianStartRe = regexp.MustCompile(`^([A-Za-z])(\d)([A-Za-z]) ?(\d)([A-Za-z])(\d)$`)
var ukAreaRe = regexp.MustCompile(`^([A-Z]{1,2})`)

// Detect reports the regional format of a postal code.
func Detect(code string) (Region, bool) {
	code = strings.TrimSpace(code)
	for _, rp := range regionPatterns {
		if rp.pattern.MatchString(code) {
			return rp.region, true
		}
	}
	return "", false
}

// Generate produces exactly count postal codes in the start code's regional
// format, beginning from the start code's area. An unrecognized format is a
// configuration error.
func Generate(start string, count int) ([]string, error) {
	region, ok := Detect(start)
	if !ok {
		return nil, fmt.Errorf("unsupported postal code format: %s", start)
	}

	switch region {
	case RegionCanada:
		return canadianCodes(start, count)
	case RegionUSA:
		return usZipCodes(start, count)
	case RegionUK:
		return ukCodes(start, count)
	default:
		return nil, fmt.Errorf("unsupported region: %s", region)
	}
}

// canadianCodes walks the forward sortation area outward from the start code:
// the district letter cycles each step, the district digit advances once per
// full letter cycle, and the local delivery unit is randomized.
func canadianCodes(start string, count int) ([]string, error) {
	match := canadianStartRe.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(start)))
	if match == nil {
		return nil, fmt.Errorf("invalid Canadian postal code format: %s", start)
	}

	area := match[1]
	districtNum, _ := strconv.Atoi(match[2])
	districtLetter := match[3][0]

	const letters = 26
	codes := make([]string, 0, count)
	for i := range count {
		num := (districtNum + i/letters) % 10
		letter := byte('A' + (int(districtLetter-'A')+i%letters)%letters)

		unitNum := rand.IntN(9) + 1
		unitLetter := byte('A' + rand.IntN(letters))
		unitFinal := rand.IntN(10)

		codes = append(codes, fmt.Sprintf("%s%d%c %d%c%d", area, num, letter, unitNum, unitLetter, unitFinal))
	}
	return codes, nil
}

// usZipCodes increments the five digit ZIP with wraparound.
func usZipCodes(start string, count int) ([]string, error) {
	base, err := strconv.Atoi(start[:5])
	if err != nil {
		return nil, fmt.Errorf("invalid US ZIP code format: %s", start)
	}

	const zipSpace = 100000
	codes := make([]string, 0, count)
	for i := range count {
		codes = append(codes, fmt.Sprintf("%05d", (base+i)%zipSpace))
	}
	return codes, nil
}

// ukCodes keeps the outward area letters and randomizes district, sector and
// unit. UK postcode structure is irregular; this is a deliberately simple
// approximation.
func ukCodes(start string, count int) ([]string, error) {
	base := strings.ToUpper(strings.ReplaceAll(start, " ", ""))
	match := ukAreaRe.FindStringSubmatch(base)
	if match == nil {
		return nil, fmt.Errorf("invalid UK postal code format: %s", start)
	}
	area := match[1]

	codes := make([]string, 0, count)
	for range count {
		district := rand.IntN(99) + 1
		sector := rand.IntN(10)
		unit := string([]byte{byte('A' + rand.IntN(26)), byte('A' + rand.IntN(26))})
		codes = append(codes, fmt.Sprintf("%s%d %d%s", area, district, sector, unit))
	}
	return codes, nil
}
