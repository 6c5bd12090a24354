// Package transition tracks the usage state of every subresource of a resource so that the
// barriers required before a new use can be computed.
package transition

import (
	"github.com/cockroachdb/errors"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/memutils"
)

// ResourceState is the per-subresource state tracker owned by a directly-allocated resource
type ResourceState struct {
	simultaneousAccess bool
	allSame            bool
	states             []device.ResourceState
}

// NewResourceState creates a tracker for subresourceCount subresources, all in
// device.ResourceStateCommon
func NewResourceState(subresourceCount uint32, simultaneousAccess bool) (*ResourceState, error) {
	if subresourceCount == 0 {
		return nil, errors.New("a resource must have at least one subresource")
	}

	return &ResourceState{
		simultaneousAccess: simultaneousAccess,
		allSame:            true,
		states:             make([]device.ResourceState, subresourceCount),
	}, nil
}

// SubresourceCount returns the number of independently tracked subresources of a resource with
// the provided description, viewed through format. Every mip level of every array slice of
// every plane is tracked, and stencil is tracked separately from depth.
func SubresourceCount(desc device.ResourceDesc, format device.Format) uint32 {
	mipLevels := uint32(desc.MipLevels)
	if mipLevels == 0 {
		mipLevels = 1
	}

	count := mipLevels * desc.ArraySize() * desc.Format.PlaneCount()
	if format.HasStencil() {
		count *= 2
	}

	return count
}

// SupportsSimultaneousAccess returns true if the resource may be used in several states at once
// without transitions. Buffers always may.
func SupportsSimultaneousAccess(desc device.ResourceDesc) bool {
	return desc.Dimension == device.ResourceDimensionBuffer ||
		desc.Flags&device.ResourceFlagAllowSimultaneousAccess != 0
}

func (s *ResourceState) NumSubresources() uint32 {
	return uint32(len(s.states))
}

func (s *ResourceState) SimultaneousAccess() bool {
	return s.simultaneousAccess
}

func (s *ResourceState) checkIndex(subresource uint32) error {
	if subresource >= uint32(len(s.states)) {
		return errors.Wrapf(memutils.OutOfRangeError, "subresource %d of a resource with %d subresources", subresource, len(s.states))
	}
	return nil
}

func (s *ResourceState) SubresourceState(subresource uint32) (device.ResourceState, error) {
	err := s.checkIndex(subresource)
	if err != nil {
		return device.ResourceStateCommon, err
	}

	return s.states[subresource], nil
}

func (s *ResourceState) SetSubresourceState(subresource uint32, state device.ResourceState) error {
	err := s.checkIndex(subresource)
	if err != nil {
		return err
	}

	s.states[subresource] = state
	s.allSame = s.computeAllSame()

	return nil
}

// SetAll moves every subresource into state
func (s *ResourceState) SetAll(state device.ResourceState) {
	for i := range s.states {
		s.states[i] = state
	}
	s.allSame = true
}

// AreAllSubresourcesSame returns true if every subresource is in the same state
func (s *ResourceState) AreAllSubresourcesSame() bool {
	return s.allSame
}

func (s *ResourceState) computeAllSame() bool {
	for i := 1; i < len(s.states); i++ {
		if s.states[i] != s.states[0] {
			return false
		}
	}
	return true
}
