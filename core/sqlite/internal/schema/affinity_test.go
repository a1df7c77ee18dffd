package schema

import "testing"

func TestDetermineAffinity(t *testing.T) {
	tests := []struct {
		typeName string
		want     Affinity
	}{
		{"INTEGER", AffinityInteger},
		{"INT", AffinityInteger},
		{"TINYINT", AffinityInteger},
		{"UNSIGNED BIG INT", AffinityInteger},
		{"INT8", AffinityInteger},
		{"integer", AffinityInteger},

		{"TEXT", AffinityText},
		{"CLOB", AffinityText},
		{"VARCHAR(255)", AffinityText},
		{"NATIVE CHARACTER(70)", AffinityText},
		{"text", AffinityText},

		{"BLOB", AffinityBlob},
		{"", AffinityBlob},

		{"REAL", AffinityReal},
		{"DOUBLE PRECISION", AffinityReal},
		{"FLOAT", AffinityReal},

		{"NUMERIC", AffinityNumeric},
		{"DECIMAL(10,5)", AffinityNumeric},
		{"BOOLEAN", AffinityNumeric},
		{"DATETIME", AffinityNumeric},

		// Rule order: INT is checked before CHAR and FLOA.
		{"CHARINT", AffinityInteger},
		{"FLOATING POINT", AffinityInteger},
	}

	for _, tt := range tests {
		t.Run(tt.typeName, func(t *testing.T) {
			if got := DetermineAffinity(tt.typeName); got != tt.want {
				t.Errorf("DetermineAffinity(%q) = %v, want %v", tt.typeName, got, tt.want)
			}
		})
	}
}

func TestStrictAffinity(t *testing.T) {
	if got := strictAffinity("ANY"); got != AffinityBlob {
		t.Errorf("strictAffinity(ANY) = %v, want BLOB", got)
	}
	if got := strictAffinity("INT"); got != AffinityInteger {
		t.Errorf("strictAffinity(INT) = %v, want INTEGER", got)
	}
}
