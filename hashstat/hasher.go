package hashstat

import (
	"fmt"

	"github.com/datatrails/go-datatrails-common/logger"

	"github.com/sidney/mira4-assembler-patches-sub001/vhash"
)

// hasher turns reads into raw single occurrence records.
type hasher struct {
	log         logger.Logger
	enc         *vhash.Encoder
	rc          bool
	skipInvalid bool
}

func newHasher(bc *BuildContext) (*hasher, error) {
	enc, err := bc.encoder()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadConfig, err)
	}
	return &hasher{
		log:         bc.Log,
		enc:         enc,
		rc:          bc.Config.AlsoReverseComplement,
		skipInvalid: bc.Config.SkipInvalidReads,
	}, nil
}

// windows returns an iterator over the hashed region of r. skip is true when
// r holds an unrecognized byte and invalid reads are being skipped.
func (h *hasher) windows(r *Read) (it *vhash.Iterator, skip bool, err error) {
	if err := r.check(); err != nil {
		return nil, false, err
	}
	lo, hi := traitsOf(r.Tech).hashBounds(r)
	if h.skipInvalid {
		if err := vhash.Validate(r.Seq[lo:hi]); err != nil {
			h.log.Infof("skipping read %s: %v", r.Name, err)
			return nil, true, nil
		}
	}
	return h.enc.Iter(r.Seq, r.Valid, lo, hi), false, nil
}

// each calls fn with one record per window of r, and one more per window for
// the reverse complement when that is enabled.
func (h *hasher) each(r *Read, fn func(HashRecord) error) (skipped bool, err error) {
	it, skip, err := h.windows(r)
	if err != nil || skip {
		return skip, err
	}

	fwdFlag, revFlag := FlagSeenForward, FlagSeenReverse
	if r.Reversed {
		fwdFlag, revFlag = revFlag, fwdFlag
	}
	n := len(r.Seq)
	for it.Next() {
		err := fn(HashRecord{
			Key: it.Key(), Count: 1, LowPos: lowPos(it.Start()), Tech: r.Tech, Flags: fwdFlag,
		})
		if err != nil {
			return false, err
		}
		if !h.rc {
			continue
		}
		err = fn(HashRecord{
			Key: it.RevKey(), Count: 1, LowPos: lowPos(n - 1 - it.End()), Tech: r.Tech, Flags: revFlag,
		})
		if err != nil {
			return false, err
		}
	}
	if err := it.Err(); err != nil {
		return false, fmt.Errorf("read %q: %w", r.Name, err)
	}
	return false, nil
}

// estimateOccurrences is an upper bound on the records each will produce.
func (h *hasher) estimateOccurrences(reads []*Read) uint64 {
	var n uint64
	for _, r := range reads {
		if !r.Tech.Valid() {
			continue
		}
		n += uint64(windowCount(r, h.enc.K()))
	}
	if h.rc {
		n *= 2
	}
	return n
}
