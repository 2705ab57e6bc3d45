package normalize

import (
	"errors"
	"testing"
)

func TestInRange(t *testing.T) {
	tests := []struct {
		name  string
		value Quantity
		min   Quantity
		max   Quantity
		want  Quantity
	}{
		{"all unset", Unset(), Unset(), Unset(), Unset()},
		{"unset takes min", Unset(), Int(1), Unset(), Int(1)},
		{"unset takes max", Unset(), Unset(), Int(1), Int(1)},
		{"unset prefers min", Unset(), Str("1K"), Str("50G"), Str("1K")},
		{"no bounds", Int(1), Unset(), Unset(), Int(1)},
		{"below min", Int(0), Int(1), Unset(), Int(1)},
		{"above max", Int(2), Unset(), Int(1), Int(1)},
		{"inside", Int(1), Int(0), Int(2), Int(1)},
		{"bytes below 1K", Int(1023), Str("1K"), Unset(), Str("1K")},
		{"bytes above 1K min", Int(1035), Str("1K"), Unset(), Int(1035)},
		{"bytes above 1K max", Int(1035), Unset(), Str("1K"), Str("1K")},
		{"bare string is megabytes", Str("1035"), Str("1K"), Unset(), Str("1035")},
		{"60000M over 50G", Str("60000M"), Str("1K"), Str("50G"), Str("50G")},
		{"60000 over 50G", Str("60000"), Str("1K"), Str("50G"), Str("50G")},
		{"60000M under 70G", Str("60000M"), Str("1K"), Str("70G"), Str("60000M")},
		{"int bytes under 70G", Int(60000), Str("1K"), Str("70G"), Int(60000)},
		{"int bytes over 70G", Int(90000 * 1024 * 1024), Str("1K"), Str("70G"), Str("70G")},
		{"90000 over 70G", Str("90000"), Str("1K"), Str("70G"), Str("70G")},
		{"60000M under 60G min", Str("60000M"), Str("60G"), Str("70G"), Str("60G")},
		{"lowercase units", Str("2g"), Unset(), Str("1024m"), Str("1024m")},
		{"not a memory string passes", Str("1GB"), Unset(), Str("1G"), Str("1GB")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := InRange(tt.value, tt.min, tt.max)
			if !got.Equal(tt.want) {
				t.Errorf("InRange(%v, %v, %v) = %v; want %v", tt.value, tt.min, tt.max, got, tt.want)
			}
		})
	}
}

func TestInRangeIdempotent(t *testing.T) {
	min, max := Str("1K"), Str("50G")
	for _, v := range []Quantity{Int(12), Str("60000M"), Str("5G"), Unset()} {
		once := InRange(v, min, max)
		twice := InRange(once, min, max)
		if !once.Equal(twice) {
			t.Errorf("InRange not idempotent for %v: %v then %v", v, once, twice)
		}
	}
}

func TestMemoryToValue(t *testing.T) {
	tests := []struct {
		in     string
		def    string
		target string
		want   float64
		ok     bool
	}{
		{"1K", "m", "b", 1024, true},
		{"1", "m", "b", 1024 * 1024, true},
		{"2G", "m", "m", 2048, true},
		{"1t", "m", "g", 1024, true},
		{"512", "k", "k", 512, true},
		{"1GB", "m", "b", 0, false},
		{"", "m", "b", 0, false},
		{"G", "m", "b", 0, false},
	}
	for _, tt := range tests {
		got, ok := MemoryToValue(tt.in, tt.def, tt.target)
		if ok != tt.ok || got != tt.want {
			t.Errorf("MemoryToValue(%q, %q, %q) = (%v, %v); want (%v, %v)",
				tt.in, tt.def, tt.target, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCheckQueueParameters(t *testing.T) {
	limits := Limits{
		CoresMin:   Int(10),
		CoresMax:   Int(100),
		RunTimeMax: Int(259200),
		MemoryMax:  Unset(),
	}

	cores, runTime, memory := CheckQueueParameters(limits, Int(2), Int(10), Str("1GB"))
	if !cores.Equal(Int(10)) {
		t.Errorf("cores = %v; want 10", cores)
	}
	if !runTime.Equal(Int(10)) {
		t.Errorf("run time = %v; want 10", runTime)
	}
	if !memory.Equal(Str("1GB")) {
		t.Errorf("memory = %v; want 1GB", memory)
	}

	_, runTime, memory = CheckQueueParameters(limits, Unset(), Unset(), Unset())
	if !runTime.Equal(Int(259200)) {
		t.Errorf("unset run time = %v; want queue max 259200", runTime)
	}
	if memory.IsSet() {
		t.Errorf("unset memory with no limit = %v; want unset", memory)
	}

	// Run time and memory have no lower bound.
	limits.MemoryMax = Str("50G")
	_, _, memory = CheckQueueParameters(limits, Int(1), Unset(), Str("60000M"))
	if !memory.Equal(Str("50G")) {
		t.Errorf("memory = %v; want 50G", memory)
	}
}

func TestFromAny(t *testing.T) {
	tests := []struct {
		in      any
		want    Quantity
		wantErr bool
	}{
		{nil, Unset(), false},
		{10, Int(10), false},
		{int64(7), Int(7), false},
		{float64(3), Int(3), false},
		{"50G", Str("50G"), false},
		{1.5, Unset(), true},
		{[]string{"x"}, Unset(), true},
	}
	for _, tt := range tests {
		got, err := FromAny(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("FromAny(%v) error = %v; wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if !got.Equal(tt.want) {
			t.Errorf("FromAny(%v) = %v; want %v", tt.in, got, tt.want)
		}
	}
}

func TestParseInt(t *testing.T) {
	if q := ParseInt("3600"); !q.Equal(Int(3600)) {
		t.Errorf("ParseInt(3600) = %v", q)
	}
	if q := ParseInt("4G"); !q.Equal(Str("4G")) {
		t.Errorf("ParseInt(4G) = %v", q)
	}
	if q := ParseInt(" "); q.IsSet() {
		t.Errorf("ParseInt(blank) = %v; want unset", q)
	}
}

func TestRequireCommand(t *testing.T) {
	if err := RequireCommand("  "); !errors.Is(err, ErrMissingCommand) {
		t.Errorf("RequireCommand(blank) = %v; want ErrMissingCommand", err)
	}
	if err := RequireCommand("echo hello"); err != nil {
		t.Errorf("RequireCommand(echo hello) = %v", err)
	}
}
