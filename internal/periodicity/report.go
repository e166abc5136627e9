package periodicity

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fenwicklabs/iotwatch/internal/modelstore"
)

// BucketReport is one line of the raw periodicity report for a (protocol,
// host) bucket, per §4.6.2 step 6.
type BucketReport struct {
	Protocol string
	Host     string
	Result   Result
}

// FormatLine renders one report line in the exact format §4.6.2 specifies:
// `"<proto> <host> # <count>: best: <p1>[, <p2>]"` when detected, else
// `"No period detected <proto> <host> # <count>"`.
func (b BucketReport) FormatLine() string {
	if !b.Result.Detected || len(b.Result.Periods) == 0 {
		return fmt.Sprintf("No period detected %s %s # %d", b.Protocol, b.Host, b.Result.Count)
	}
	best := make([]string, len(b.Result.Periods))
	for i, p := range b.Result.Periods {
		best[i] = strconv.FormatFloat(p, 'g', -1, 64)
	}
	return fmt.Sprintf("%s %s # %d: best: %s", b.Protocol, b.Host, b.Result.Count, strings.Join(best, ", "))
}

// WriteReport writes one line per bucket to path
// (`<project>/models/freq_period/1s/<mac>.txt`), overwriting any existing
// file, so InferPeriodicity is idempotent per §6.
func WriteReport(path string, reports []BucketReport) error {
	var b strings.Builder
	for _, r := range reports {
		b.WriteString(r.FormatLine())
		b.WriteByte('\n')
	}
	return os.WriteFile(path, []byte(b.String()), 0o644)
}

// EmitFingerprint parses a raw periodicity report file, keeps only
// "detected" lines, and writes the device model's fingerprint file
// (`<models>/freq_period/fingerprints/<device_model>.txt`), one
// `"<proto> <host> <period>"` line per detected bucket (using the
// best/first reported period).
func EmitFingerprint(reportPath, fingerprintPath string) error {
	f, err := os.Open(reportPath)
	if err != nil {
		return fmt.Errorf("open report %s: %w", reportPath, err)
	}
	defer f.Close()

	var fp modelstore.Fingerprint
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "No period detected") {
			continue
		}
		entry, ok := parseDetectedLine(line)
		if !ok {
			continue
		}
		fp = append(fp, entry)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan report %s: %w", reportPath, err)
	}
	return modelstore.SaveFingerprint(fingerprintPath, fp)
}

// parseDetectedLine parses "<proto> <host> # <count>: best: <p1>[, <p2>]"
// into a fingerprint entry using the first (best) reported period.
func parseDetectedLine(line string) (modelstore.FingerprintEntry, bool) {
	hashIdx := strings.Index(line, "#")
	if hashIdx < 0 {
		return modelstore.FingerprintEntry{}, false
	}
	head := strings.Fields(strings.TrimSpace(line[:hashIdx]))
	if len(head) < 2 {
		return modelstore.FingerprintEntry{}, false
	}
	proto, host := head[0], head[1]

	bestIdx := strings.Index(line, "best:")
	if bestIdx < 0 {
		return modelstore.FingerprintEntry{}, false
	}
	rest := strings.TrimSpace(line[bestIdx+len("best:"):])
	firstPeriod := strings.TrimSpace(strings.Split(rest, ",")[0])
	period, err := strconv.ParseFloat(firstPeriod, 64)
	if err != nil {
		return modelstore.FingerprintEntry{}, false
	}
	return modelstore.FingerprintEntry{HostPattern: host, Protocol: proto, Period: period}, true
}
