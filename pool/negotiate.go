// Copyright 2022 Gustavo C. Viegas. All rights reserved.

package pool

import (
	"github.com/gviegas/wm/surface"
)

// Status summarizes the outcome of a Negotiate call.
type Status int

const (
	StatusOK Status = iota
	StatusNoMemory
	StatusUnsupported
)

// filterTypeMask narrows typ by the surface's access policy: a
// system-only surface can only be placed in pools accepting the
// internal-memory bit, a video-only surface only in pools accepting
// the external bit, and any other policy leaves typ unchanged.
func filterTypeMask(policy surface.AccessPolicy, typ surface.TypeFlags) surface.TypeFlags {
	switch policy {
	case surface.PolicySystemOnly:
		return (typ &^ (surface.TypeInternal | surface.TypeExternal)) | surface.TypeInternal
	case surface.PolicyVideoOnly:
		return (typ &^ (surface.TypeInternal | surface.TypeExternal)) | surface.TypeExternal
	default:
		return typ
	}
}

// Negotiate ranks the pools able to service accessor/access for
// buffer, filtering by the owning surface's policy-adjusted type mask
// and per-accessor access table, and probing ConfigTester where
// available. The result lists pools that tested OK first, then ones
// that tested out of memory, up to max entries (0 means unlimited).
// isSlave restricts the slave process to pools whose accessor mask
// includes surface.AccessShared, since a non-owning process can only
// touch memory the owner agreed to share.
func (r *Registry) Negotiate(buffer *surface.Buffer, accessor surface.Accessor, access surface.AccessMask, max int, isSlave bool) ([]*Pool, Status, error) {
	surf := buffer.Owner()
	typMask := filterTypeMask(surf.Policy, surf.Type) &^ surface.TypePreallocated
	cfg := Config{Width: surf.Width, Height: surf.Height, Format: surf.Format, Caps: surf.Caps}

	var ok, noMem []*Pool
	for _, p := range r.PriorityOrder() {
		if isSlave && p.Desc.Access[accessor]&surface.AccessShared == 0 {
			continue
		}
		if p.Desc.Access[accessor]&access != access {
			continue
		}
		if p.Desc.AcceptedTypes&typMask != typMask {
			continue
		}
		if surf.Type&surface.TypePreallocated != 0 {
			// A preallocated-memory hint: only a pool that claims
			// ownership of that memory may serve the surface.
			pa, implemented := p.Ops.(PreAllocer)
			if !implemented {
				continue
			}
			owns, err := pa.PreAlloc(p.Desc, cfg)
			if err != nil || !owns {
				continue
			}
		}
		if ct, implemented := p.Ops.(ConfigTester); implemented {
			res, err := ct.TestConfig(buffer, cfg)
			if err != nil || res == TestUnsupported {
				continue
			}
			if res == TestNoMemory {
				noMem = append(noMem, p)
				continue
			}
		}
		ok = append(ok, p)
	}

	order := append(ok, noMem...)
	if max > 0 && len(order) > max {
		order = order[:max]
	}

	switch {
	case len(order) == 0:
		return nil, StatusUnsupported, nil
	case len(ok) == 0:
		return order, StatusNoMemory, nil
	default:
		return order, StatusOK, nil
	}
}
