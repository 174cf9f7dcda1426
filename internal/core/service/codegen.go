package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

const (
	prefixPatient = "PAT"
	prefixDoctor  = "DOC"
	prefixAdmin   = "ADM"

	maxCodeAttempts = 50
)

// CodeSegment is one seed attribute and the width it is truncated to.
type CodeSegment struct {
	Value string
	Width int
}

// CodeSpec describes a role-scoped business code before collision handling.
type CodeSpec struct {
	Prefix      string
	Seeds       []CodeSegment
	Handle      string
	HandleWidth int
}

// CodeExists reports whether a candidate code is already taken.
type CodeExists func(ctx context.Context, code string) (bool, error)

// CodeGenerator builds PREFIX-yy-SEEDS-HANDLE codes and resolves collisions
// with numeric suffixes, falling back to a millisecond timestamp.
type CodeGenerator struct {
	now func() time.Time
}

func NewCodeGenerator() *CodeGenerator {
	return &CodeGenerator{now: time.Now}
}

// Base returns the candidate code without any collision suffix.
func (g *CodeGenerator) Base(spec CodeSpec) string {
	var b strings.Builder
	b.WriteString(spec.Prefix)
	b.WriteByte('-')
	b.WriteString(g.now().Format("06"))

	for _, seed := range spec.Seeds {
		if seg := normalizeSegment(seed.Value, seed.Width); seg != "" {
			b.WriteByte('-')
			b.WriteString(seg)
		}
	}

	handle := normalizeSegment(spec.Handle, spec.HandleWidth)
	if handle == "" {
		handle = "USER"
	}
	b.WriteByte('-')
	b.WriteString(handle)
	return b.String()
}

// Generate returns the first free candidate among base, base-2 … base-50.
// After that many collisions it returns base-<unix millis> unchecked.
func (g *CodeGenerator) Generate(ctx context.Context, spec CodeSpec, exists CodeExists) (string, error) {
	base := g.Base(spec)
	candidate := base
	for i := 1; ; {
		taken, err := exists(ctx, candidate)
		if err != nil {
			return "", fmt.Errorf("check code %s: %w", candidate, err)
		}
		if !taken {
			return candidate, nil
		}
		i++
		if i > maxCodeAttempts {
			return base + "-" + strconv.FormatInt(g.now().UnixMilli(), 10), nil
		}
		candidate = base + "-" + strconv.Itoa(i)
	}
}

// PatientCodeSpec seeds on the birth year.
func PatientCodeSpec(dob *time.Time, handle string) CodeSpec {
	var seed string
	if dob != nil && !dob.IsZero() {
		seed = dob.Format("20060102")
	}
	return CodeSpec{
		Prefix:      prefixPatient,
		Seeds:       []CodeSegment{{Value: seed, Width: 4}},
		Handle:      handle,
		HandleWidth: 4,
	}
}

// DoctorCodeSpec seeds on the license number.
func DoctorCodeSpec(licenseNumber, handle string) CodeSpec {
	return CodeSpec{
		Prefix:      prefixDoctor,
		Seeds:       []CodeSegment{{Value: licenseNumber, Width: 4}},
		Handle:      handle,
		HandleWidth: 3,
	}
}

// AdminCodeSpec seeds on the department, and on the admin level too when one
// is given, narrowing every segment to two characters in that case.
func AdminCodeSpec(department, level, handle string) CodeSpec {
	if strings.TrimSpace(level) == "" {
		return CodeSpec{
			Prefix:      prefixAdmin,
			Seeds:       []CodeSegment{{Value: department, Width: 3}},
			Handle:      handle,
			HandleWidth: 3,
		}
	}
	return CodeSpec{
		Prefix: prefixAdmin,
		Seeds: []CodeSegment{
			{Value: department, Width: 2},
			{Value: level, Width: 2},
		},
		Handle:      handle,
		HandleWidth: 2,
	}
}

// normalizeSegment folds to ASCII, keeps letters and digits, upper-cases and
// truncates to width.
func normalizeSegment(s string, width int) string {
	t := transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}

	var b strings.Builder
	for _, r := range folded {
		if r < unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r)) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	out := b.String()
	if width > 0 && len(out) > width {
		out = out[:width]
	}
	return out
}
