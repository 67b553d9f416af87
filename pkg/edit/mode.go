package edit

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Mode selects what the next Edit or EditXY call changes.
type Mode int

const (
	ModeIdle Mode = iota
	ModeScale
	ModeTranslate
	ModeRotate

	ModeEBMFileName
	ModeEBMFileSize
	ModeEBMHeight

	ModeVolFileName
	ModeVolFileSize
	ModeVolCellSize
	ModeVolThreshLo
	ModeVolThreshHi

	ModeMetaballThreshold
	ModeMetaballMethod
	ModeMetaballPick
	ModeMetaballNext
	ModeMetaballPrev
	ModeMetaballMove
	ModeMetaballFieldStrength
	ModeMetaballSweat
	ModeMetaballDelete
	ModeMetaballAdd

	ModeTorR1
	ModeTorR2
)

var modeNames = map[Mode]string{
	ModeIdle:      "idle",
	ModeScale:     "scale",
	ModeTranslate: "translate",
	ModeRotate:    "rotate",

	ModeEBMFileName: "ebm-file-name",
	ModeEBMFileSize: "ebm-file-size",
	ModeEBMHeight:   "ebm-height",

	ModeVolFileName: "vol-file-name",
	ModeVolFileSize: "vol-file-size",
	ModeVolCellSize: "vol-cell-size",
	ModeVolThreshLo: "vol-thresh-lo",
	ModeVolThreshHi: "vol-thresh-hi",

	ModeMetaballThreshold:     "metaball-threshold",
	ModeMetaballMethod:        "metaball-method",
	ModeMetaballPick:          "metaball-pick",
	ModeMetaballNext:          "metaball-next",
	ModeMetaballPrev:          "metaball-prev",
	ModeMetaballMove:          "metaball-move",
	ModeMetaballFieldStrength: "metaball-field-strength",
	ModeMetaballSweat:         "metaball-sweat",
	ModeMetaballDelete:        "metaball-delete",
	ModeMetaballAdd:           "metaball-add",

	ModeTorR1: "tor-r1",
	ModeTorR2: "tor-r2",
}

func (m Mode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// IsBase reports whether m is one of the modes every solid supports.
func (m Mode) IsBase() bool {
	return m == ModeScale || m == ModeTranslate || m == ModeRotate
}

// ParseMode returns the mode with the given name.
func ParseMode(name string) (Mode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for m, n := range modeNames {
		if n == name {
			return m, nil
		}
	}
	return ModeIdle, fmt.Errorf("%w: %q", ErrUnknownMode, name)
}

// ModeNames returns the names of all modes in sorted order.
func ModeNames() []string {
	names := lo.Values(modeNames)
	slices.Sort(names)
	return names
}
