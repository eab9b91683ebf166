package intgen

import (
	"context"
	"sync"
	"testing"
)

func TestSnowflakeGenerator_Generate(t *testing.T) {
	gen := NewSnowflakeGenerator(nil)
	ctx := context.Background()

	id1, err := gen.Generate(ctx)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	id2, _ := gen.Generate(ctx)
	if id1 >= id2 {
		t.Errorf("ID应该递增，但得到 id1=%d, id2=%d", id1, id2)
	}
	if ts := id1 >> timestampShift; ts <= 0 {
		t.Errorf("时间戳应该大于0，但得到 %d", ts)
	}
}

func TestSnowflakeGenerator_MachineID(t *testing.T) {
	tests := []struct {
		name      string
		machineID int64
		want      int64
	}{
		{name: "custom", machineID: 123, want: 123},
		{name: "truncated", machineID: 2048 + 5, want: 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			machineID := tt.machineID
			gen := NewSnowflakeGenerator(&SnowflakeOptions{MachineID: &machineID})
			id, _ := gen.Generate(context.Background())
			if got := (id >> machineIDShift) & maxMachineID; got != tt.want {
				t.Errorf("期望机器ID为 %d，但得到 %d", tt.want, got)
			}
		})
	}
}

func TestSnowflakeGenerator_SequenceOverflow(t *testing.T) {
	machineID := int64(1)
	gen := NewSnowflakeGenerator(&SnowflakeOptions{MachineID: &machineID})

	// 固定时钟，序列号耗尽后推进一毫秒
	var mu sync.Mutex
	current := snowflakeEpoch + 1000
	calls := 0
	gen.now = func() int64 {
		mu.Lock()
		defer mu.Unlock()
		calls++
		if calls > maxSequence+10 {
			return current + 1
		}
		return current
	}
	gen.state = (current - gen.epoch) << sequenceBits

	var last int64
	for i := 0; i <= maxSequence+1; i++ {
		id, err := gen.Generate(context.Background())
		if err != nil {
			t.Fatalf("Generate() error = %v", err)
		}
		if id <= last {
			t.Fatalf("ID应该递增，第 %d 个 id=%d last=%d", i, id, last)
		}
		last = id
	}
	if ts := last >> timestampShift; ts != 1001 {
		t.Errorf("序列号耗尽后应该进入下一毫秒，得到时间戳 %d", ts)
	}
}

func TestSnowflakeGenerator_Canceled(t *testing.T) {
	machineID := int64(1)
	gen := NewSnowflakeGenerator(&SnowflakeOptions{MachineID: &machineID})
	gen.now = func() int64 { return snowflakeEpoch }
	gen.state = maxSequence

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := gen.Generate(ctx); err == nil {
		t.Error("Generate() should fail when the clock is stuck and ctx is canceled")
	}
}

func TestSnowflakeGenerator_Concurrent(t *testing.T) {
	gen := NewSnowflakeGenerator(nil)

	const workers, perWorker = 8, 500
	var mu sync.Mutex
	seen := make(map[int64]struct{}, workers*perWorker)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < perWorker; j++ {
				id, err := gen.Generate(context.Background())
				if err != nil {
					t.Error(err)
					return
				}
				mu.Lock()
				seen[id] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if len(seen) != workers*perWorker {
		t.Errorf("期望 %d 个唯一ID，得到 %d", workers*perWorker, len(seen))
	}
}

func TestNewIntGeneratorWithOptions(t *testing.T) {
	tests := []struct {
		name    string
		options *Options
		wantErr bool
	}{
		{name: "nil options", options: nil},
		{name: "snowflake", options: &Options{Type: "snowflake"}},
		{name: "redis without addr", options: &Options{Type: "redis"}, wantErr: true},
		{name: "unknown", options: &Options{Type: "uuid"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen, err := NewIntGeneratorWithOptions(tt.options)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewIntGeneratorWithOptions() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && gen == nil {
				t.Fatal("generator is nil")
			}
		})
	}
}
