package poll

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestNextWithoutHint(t *testing.T) {
	// 无提示直接返回基础间隔，不做下限兜底
	calc := IntervalCalculator{Base: 2 * time.Second, Floor: 10 * time.Second}
	require.Equal(t, 2*time.Second, calc.Next(0))
	require.Equal(t, 2*time.Second, calc.Next(-time.Second))
}

func TestNextShortHintFloored(t *testing.T) {
	// max(2s, 1s)=2s，再被10s下限兜底
	calc := IntervalCalculator{Base: 2 * time.Second, Floor: 10 * time.Second}
	require.Equal(t, 10*time.Second, calc.Next(time.Second))
}

func TestNextLongHintWins(t *testing.T) {
	calc := IntervalCalculator{Base: 2 * time.Second, Floor: 10 * time.Second}
	require.Equal(t, time.Hour, calc.Next(time.Hour))
}

func TestNextMonotonicInAdvertised(t *testing.T) {
	calc := IntervalCalculator{Base: 2 * time.Second, Floor: 10 * time.Second}
	prev := time.Duration(0)
	for _, advertised := range []time.Duration{
		time.Second, 5 * time.Second, 30 * time.Second, time.Minute, time.Hour,
	} {
		d := calc.Next(advertised)
		require.GreaterOrEqual(t, d, prev, "advertised=%v", advertised)
		require.GreaterOrEqual(t, d, calc.Floor)
		prev = d
	}
}
