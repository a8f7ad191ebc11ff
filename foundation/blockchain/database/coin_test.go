package database_test

import (
	"errors"
	"math"
	"testing"

	"github.com/ardanlabs/utxochain/foundation/blockchain/database"
)

func Test_ParseCoins(t *testing.T) {
	tt := []struct {
		in    string
		units uint64
		err   error
	}{
		{"50", 50 * database.Unit, nil},
		{"0.5", database.Unit / 2, nil},
		{"0.00000001", 1, nil},
		{" 1.25 ", 125_000_000, nil},
		{"184467440737", 184467440737 * database.Unit, nil},
		{"0.000000001", 0, database.ErrInvalidAmount},
		{"184467440738", 0, database.ErrInvalidAmount},
		{"-1", 0, database.ErrInvalidAmount},
		{"1.", 0, database.ErrInvalidAmount},
		{".5", 0, database.ErrInvalidAmount},
		{"1.2.3", 0, database.ErrInvalidAmount},
		{"abc", 0, database.ErrInvalidAmount},
		{"", 0, database.ErrInvalidAmount},
	}

	t.Log("Given the need to read coin amounts typed by a user.")
	{
		for testID, tst := range tt {
			units, err := database.ParseCoins(tst.in)

			if tst.err != nil {
				if !errors.Is(err, tst.err) {
					t.Fatalf("\t%s\tTest %d:\tShould reject %q, got %d: %v.", failed, testID, tst.in, units, err)
				}
				t.Logf("\t%s\tTest %d:\tShould reject %q.", success, testID, tst.in)
				continue
			}

			if err != nil || units != tst.units {
				t.Fatalf("\t%s\tTest %d:\tShould parse %q as %d units, got %d: %v.", failed, testID, tst.in, tst.units, units, err)
			}
			t.Logf("\t%s\tTest %d:\tShould parse %q as %d units.", success, testID, tst.in, tst.units)
		}
	}
}

func Test_FormatCoins(t *testing.T) {
	tt := []struct {
		units uint64
		out   string
	}{
		{0, "0"},
		{database.Subsidy, "50"},
		{database.Unit / 2, "0.5"},
		{1, "0.00000001"},
		{math.MaxUint64, "184467440737.09551615"},
	}

	t.Log("Given the need to show unit amounts as coins.")
	{
		for testID, tst := range tt {
			if got := database.FormatCoins(tst.units); got != tst.out {
				t.Fatalf("\t%s\tTest %d:\tShould format %d as %q, got %q.", failed, testID, tst.units, tst.out, got)
			}
			t.Logf("\t%s\tTest %d:\tShould format %d as %q.", success, testID, tst.units, tst.out)

			if tst.units == math.MaxUint64 {
				continue
			}

			back, err := database.ParseCoins(tst.out)
			if err != nil || back != tst.units {
				t.Fatalf("\t%s\tTest %d:\tShould parse %q back to %d, got %d: %v.", failed, testID, tst.out, tst.units, back, err)
			}
			t.Logf("\t%s\tTest %d:\tShould parse %q back to %d.", success, testID, tst.out, tst.units)
		}
	}
}
