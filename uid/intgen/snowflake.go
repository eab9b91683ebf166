package intgen

import (
	"context"
	"net"
	"sync/atomic"
	"time"
)

// SnowflakeOptions Snowflake 配置
type SnowflakeOptions struct {
	// 机器ID，为 nil 时从本机 IPv4 地址的低两个字节推导
	MachineID *int64 `cfg:"machineID"`
}

// SnowflakeGenerator 进程内无锁的 Snowflake 生成器
// 64位结构：1位符号位(0) + 41位时间戳 + 10位机器ID + 12位序列号
type SnowflakeGenerator struct {
	state     int64 // 高52位时间戳 + 低12位序列号
	machineID int64
	epoch     int64
	now       func() int64
}

const (
	sequenceBits  = 12
	machineIDBits = 10

	maxSequence  = (1 << sequenceBits) - 1
	maxMachineID = (1 << machineIDBits) - 1

	machineIDShift = sequenceBits
	timestampShift = sequenceBits + machineIDBits
)

// snowflakeEpoch 2020-01-01 00:00:00 UTC
var snowflakeEpoch = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC).UnixMilli()

// NewSnowflakeGenerator 创建 Snowflake 生成器，超出10位的机器ID会被截断
func NewSnowflakeGenerator(options *SnowflakeOptions) *SnowflakeGenerator {
	var machineID int64
	if options != nil && options.MachineID != nil {
		machineID = *options.MachineID
	} else {
		machineID = machineIDFromIP()
	}

	g := &SnowflakeGenerator{
		machineID: machineID & maxMachineID,
		epoch:     snowflakeEpoch,
		now:       func() int64 { return time.Now().UnixMilli() },
	}
	g.state = (g.now() - g.epoch) << sequenceBits
	return g
}

func machineIDFromIP() int64 {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return 0
	}
	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
			if ipv4 := ipnet.IP.To4(); ipv4 != nil {
				return int64(ipv4[2])<<8 | int64(ipv4[3])
			}
		}
	}
	return 0
}

// Generate 生成单调递增的ID，同一毫秒内序列号耗尽时等待下一毫秒
func (g *SnowflakeGenerator) Generate(ctx context.Context) (int64, error) {
	for {
		oldState := atomic.LoadInt64(&g.state)
		oldTimestamp := oldState >> sequenceBits
		oldSequence := oldState & maxSequence

		timestamp := g.now() - g.epoch
		sequence := int64(0)
		if timestamp <= oldTimestamp {
			// 时钟回拨时沿用上一次的时间戳
			timestamp = oldTimestamp
			sequence = (oldSequence + 1) & maxSequence
			if sequence == 0 {
				for timestamp <= oldTimestamp {
					if err := ctx.Err(); err != nil {
						return 0, err
					}
					timestamp = g.now() - g.epoch
				}
			}
		}

		newState := timestamp<<sequenceBits | sequence
		if atomic.CompareAndSwapInt64(&g.state, oldState, newState) {
			return timestamp<<timestampShift | g.machineID<<machineIDShift | sequence, nil
		}
	}
}
