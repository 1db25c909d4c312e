package hashstat

import (
	"fmt"
	"strings"
)

// Technology is the sequencing technology a read came from. The set is closed;
// behaviour that depends on it lives in technologyTraits.
type Technology uint8

const (
	TechSanger Technology = iota
	Tech454
	TechIonTorrent
	TechPacBioHQ
	TechPacBioLQ
	TechText
	TechSolexa
	TechNanopore

	numTechnologies
)

var technologyNames = [numTechnologies]string{
	"sanger", "454", "iontorrent", "pacbiohq", "pacbiolq", "text", "solexa", "nanopore",
}

func (t Technology) String() string {
	if t < numTechnologies {
		return technologyNames[t]
	}
	return fmt.Sprintf("technology(%d)", uint8(t))
}

// Valid reports whether t is a known technology.
func (t Technology) Valid() bool { return t < numTechnologies }

// ParseTechnology is the inverse of String, ignoring case.
func ParseTechnology(s string) (Technology, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for i, name := range technologyNames {
		if s == name {
			return Technology(i), nil
		}
	}
	return 0, fmt.Errorf("%w: unknown technology %q", ErrBadConfig, s)
}

// technologyTraits is resolved once per read.
type technologyTraits interface {
	// hashBounds is the [lo,hi) range of the read that contributes k-mers.
	hashBounds(r *Read) (lo, hi int)
	// confirmsMultiTech reports whether sightings from this technology count
	// towards the multi-technology flag. Error prone long read data does not.
	confirmsMultiTech() bool
}

type sangerTraits struct{}
type fourFiveFourTraits struct{}
type ionTorrentTraits struct{}
type pacBioHQTraits struct{}
type pacBioLQTraits struct{}
type textTraits struct{}
type solexaTraits struct{}
type nanoporeTraits struct{}

func (sangerTraits) hashBounds(r *Read) (int, int)       { return r.ClipBounds() }
func (fourFiveFourTraits) hashBounds(r *Read) (int, int) { return r.ClipBounds() }
func (ionTorrentTraits) hashBounds(r *Read) (int, int)   { return r.ClipBounds() }
func (pacBioHQTraits) hashBounds(r *Read) (int, int)     { return r.ClipBounds() }
func (pacBioLQTraits) hashBounds(r *Read) (int, int)     { return r.ClipBounds() }
func (solexaTraits) hashBounds(r *Read) (int, int)       { return r.ClipBounds() }
func (nanoporeTraits) hashBounds(r *Read) (int, int)     { return r.ClipBounds() }

// Text reads are assembled or reference sequence; clipping does not apply.
func (textTraits) hashBounds(r *Read) (int, int) { return 0, len(r.Seq) }

func (sangerTraits) confirmsMultiTech() bool       { return true }
func (fourFiveFourTraits) confirmsMultiTech() bool { return true }
func (ionTorrentTraits) confirmsMultiTech() bool   { return true }
func (pacBioHQTraits) confirmsMultiTech() bool     { return true }
func (pacBioLQTraits) confirmsMultiTech() bool     { return false }
func (textTraits) confirmsMultiTech() bool         { return false }
func (solexaTraits) confirmsMultiTech() bool       { return true }
func (nanoporeTraits) confirmsMultiTech() bool     { return false }

var technologyTable = [numTechnologies]technologyTraits{
	TechSanger:     sangerTraits{},
	Tech454:        fourFiveFourTraits{},
	TechIonTorrent: ionTorrentTraits{},
	TechPacBioHQ:   pacBioHQTraits{},
	TechPacBioLQ:   pacBioLQTraits{},
	TechText:       textTraits{},
	TechSolexa:     solexaTraits{},
	TechNanopore:   nanoporeTraits{},
}

func traitsOf(t Technology) technologyTraits {
	if !t.Valid() {
		panic(fmt.Sprintf("hashstat: invalid technology %d", uint8(t)))
	}
	return technologyTable[t]
}

// multiTechMask has a bit set for every technology whose sightings confirm
// across technologies.
var multiTechMask = func() (m uint16) {
	for t := Technology(0); t < numTechnologies; t++ {
		if technologyTable[t].confirmsMultiTech() {
			m |= 1 << t
		}
	}
	return m
}()
