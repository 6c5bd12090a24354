package commands

import (
	"fmt"
	"io"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"github.com/vkngwrapper/bufmgr/bufmgr"
	"github.com/vkngwrapper/bufmgr/device"
	"github.com/vkngwrapper/bufmgr/device/mocks"
	"github.com/vkngwrapper/bufmgr/memutils"
	"github.com/vkngwrapper/bufmgr/memutils/metadata"
	"github.com/vkngwrapper/bufmgr/pb"
	"github.com/vkngwrapper/bufmgr/suballoc"
	"golang.org/x/exp/slog"
)

type pool struct {
	buffer  *bufmgr.Buffer
	manager *suballoc.Manager
	objects []*bufmgr.BufferObject
}

func runWorkload(cmd *cobra.Command, args []string) error {
	return workload(cmd.OutOrStdout(), cmd.ErrOrStderr(), options)
}

func workload(out, logOut io.Writer, opts workloadOptions) error {
	if opts.buffers < 0 || opts.subBuffers < 0 {
		return errors.New("buffer counts must not be negative")
	}

	strategy, err := parseStrategy(opts.strategy)
	if err != nil {
		return err
	}

	logger := newLogger(logOut, opts.verbose)
	dev := mocks.NewDummyDevice(device.Features{CreateNotResident: opts.notResident})

	var flags bufmgr.CreateFlags
	if opts.unsynced {
		flags |= bufmgr.AllocatorCreateExternallySynchronized
	}

	allocator, err := bufmgr.New(logger, dev, bufmgr.CreateOptions{
		Flags:           flags,
		BufferAlignment: opts.alignment,
	})
	if err != nil {
		return err
	}
	manager := allocator.NewManager()

	pools := make([]*pool, 0, opts.buffers)
	defer func() {
		for _, p := range pools {
			p.release()
		}
		manager.Destroy()
	}()

	for i := 0; i < opts.buffers; i++ {
		p, err := createPool(logger, allocator, manager, opts, strategy)
		if err != nil {
			return errors.Wrapf(err, "failed to create pool buffer %d", i)
		}
		pools = append(pools, p)

		if opts.notResident {
			err = allocator.SetResidencyStatus(p.buffer.BufferObject(), bufmgr.ResidencyResident)
			if err != nil {
				return err
			}
		}

		list := allocator.Residency()
		list.Lock()
		p.buffer.BufferObject().SetLastUsed(int64(i+1), uint64(i+1))
		list.Unlock()
	}

	stats, err := allocator.BuildStatsString()
	if err != nil {
		return err
	}
	fmt.Fprintln(out, stats)

	var total memutils.Statistics
	for _, p := range pools {
		stats, err = p.manager.BuildStatsString()
		if err != nil {
			return err
		}
		fmt.Fprintln(out, stats)

		poolStats := p.manager.Statistics()
		total.AddStatistics(&poolStats)
	}

	fmt.Fprintf(out, "suballocated: %d buffers, %d of %d bytes\n", total.AllocationCount, total.AllocationBytes, total.BlockBytes)
	fmt.Fprintf(out, "resident bytes: %d\n", allocator.ResidentBytes())

	for _, p := range pools {
		p.release()
	}
	pools = nil

	return allocator.Destroy()
}

func createPool(logger *slog.Logger, allocator *bufmgr.Allocator, manager *bufmgr.Manager, opts workloadOptions, strategy metadata.AllocationStrategy) (*pool, error) {
	buffer, err := manager.CreatePoolBuffer(opts.bufferSize, pb.Desc{Usage: pb.UsageCPUWrite | pb.UsageGPURead})
	if err != nil {
		return nil, err
	}

	sub, err := suballoc.New(logger, buffer, suballoc.CreateOptions{
		MinAlignment: allocator.BufferAlignment(),
		Strategy:     strategy,
	})
	if err != nil {
		buffer.Release()
		return nil, err
	}

	p := &pool{buffer: buffer, manager: sub}
	if opts.subBuffers == 0 {
		return p, nil
	}

	subSize := buffer.Size() / uint64(2*opts.subBuffers)
	if subSize == 0 {
		subSize = 1
	}

	for i := 0; i < opts.subBuffers; i++ {
		subBuffer, err := sub.CreateSubBuffer(subSize, pb.Desc{Usage: pb.UsageGPURead})
		if err != nil {
			p.release()
			return nil, err
		}

		bo, err := allocator.WrapBuffer(subBuffer)
		if err != nil {
			subBuffer.Release()
			p.release()
			return nil, err
		}
		p.objects = append(p.objects, bo)
	}

	return p, nil
}

func (p *pool) release() {
	for _, bo := range p.objects {
		bo.Unreference()
	}
	p.objects = nil

	if p.manager != nil {
		p.manager.Destroy()
		p.manager = nil
	}
	if p.buffer != nil {
		p.buffer.Release()
		p.buffer = nil
	}
}
