package settlement

import "testing"

func TestComputeTransactionFee(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		price int64
		bps   int64
		want  int64
	}{
		{"standard rate", 210000, 250, 5250},
		{"offer rate", 210000, 100, 2100},
		{"rounds half up", 10001, 250, 250},
		{"rounds up past half", 10020, 250, 251},
		{"zero price", 0, 250, 0},
		{"negative price", -100, 250, 0},
		{"zero rate", 210000, 0, 0},
		{"one rupee", 1, 250, 0},
		{"large price", 95_00_000, 250, 237500},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := ComputeTransactionFee(tc.price, tc.bps); got != tc.want {
				t.Fatalf("ComputeTransactionFee(%d, %d) = %d, want %d", tc.price, tc.bps, got, tc.want)
			}
		})
	}
}
