package structural

import (
	"regexp"
	"strconv"

	"github.com/archiforge/cadrecon/pkg/geomx"
)

// Channel splits merged annotation text into two independent streams by
// rotation, so downstream beam-label parsing can
// treat horizontal and vertical runs independently.
type Channel int

const (
	ChannelH Channel = iota
	ChannelV
)

// ChannelOf classifies a rotation in degrees as horizontal or vertical: a
// rotation within 45 degrees of 0 or 180 is horizontal, otherwise vertical.
func ChannelOf(rotationDeg float64) Channel {
	r := normalizeAngle(rotationDeg)
	if r > 45 && r < 135 {
		return ChannelV
	}
	if r > 225 && r < 315 {
		return ChannelV
	}
	return ChannelH
}

func normalizeAngle(deg float64) float64 {
	for deg < 0 {
		deg += 360
	}
	for deg >= 360 {
		deg -= 360
	}
	return deg
}

// Label is a parsed beam annotation: a code, an optional span, and
// optional width/height, located at an insertion point with an optional
// leader endpoint.
type Label struct {
	RawText     string
	Code        string
	Span        int  // 0 means unspecified (caller defaults to 1)
	HasSpan     bool
	Width       int // 0 means unspecified
	Height      int
	HasWH       bool
	Insertion   geomx.Point
	LeaderEnd   *geomx.Point // nil when only the insertion point is known
	Channel     Channel
	FromViewport int
}

// labelPattern matches "CODE[(SPAN)]? [ WxH ]?" where CODE is an
// alphanumeric/dash token, SPAN is the digits inside parentheses, and WxH is
// two integers separated by x, X, or the multiplication sign.
var labelPattern = regexp.MustCompile(`^\s*([A-Za-z]+[0-9A-Za-z\-]*)\s*(?:\((\d+)\))?\s*(?:(\d+)\s*[xX×]\s*(\d+))?\s*$`)

// ParseLabel parses raw beam-label text into a Label. Returns false when the
// text does not match the CODE[(SPAN)]? [WxH]? family at all (e.g. pure
// dimension or numeric text already filtered out upstream).
func ParseLabel(raw string, insertion geomx.Point, rotation float64) (Label, bool) {
	m := labelPattern.FindStringSubmatch(raw)
	if m == nil || m[1] == "" {
		return Label{}, false
	}
	lbl := Label{
		RawText:   raw,
		Code:      m[1],
		Insertion: insertion,
		Channel:   ChannelOf(rotation),
	}
	if m[2] != "" {
		if v, err := strconv.Atoi(m[2]); err == nil {
			lbl.Span = v
			lbl.HasSpan = true
		}
	}
	if m[3] != "" && m[4] != "" {
		w, errW := strconv.Atoi(m[3])
		h, errH := strconv.Atoi(m[4])
		if errW == nil && errH == nil {
			lbl.Width = w
			lbl.Height = h
			lbl.HasWH = true
		}
	}
	return lbl, true
}

// DonorFillWH copies Width/Height from any other label sharing the same
// Code, when this label lacks them, matching the "missing W/H are
// donor-filled" rule.
func DonorFillWH(labels []Label) []Label {
	donors := map[string][2]int{}
	for _, l := range labels {
		if l.HasWH {
			if _, ok := donors[l.Code]; !ok {
				donors[l.Code] = [2]int{l.Width, l.Height}
			}
		}
	}
	out := make([]Label, len(labels))
	for i, l := range labels {
		if !l.HasWH {
			if wh, ok := donors[l.Code]; ok {
				l.Width, l.Height = wh[0], wh[1]
				l.HasWH = true
			}
		}
		out[i] = l
	}
	return out
}

// LabelModel is the merged, single-view annotation set produced by S2.
type LabelModel struct {
	H []Label
	V []Label
}

// All returns every label in both channels.
func (m LabelModel) All() []Label {
	out := make([]Label, 0, len(m.H)+len(m.V))
	out = append(out, m.H...)
	out = append(out, m.V...)
	return out
}
