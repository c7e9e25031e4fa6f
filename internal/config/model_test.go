package config

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestParseCoordinate(t *testing.T) {
	testCases := []struct {
		in      string
		want    Coordinate
		wantErr bool
	}{
		{in: "org.slf4j:slf4j-simple:2.0.7", want: Coordinate{Group: "org.slf4j", Artifact: "slf4j-simple", Version: "2.0.7"}},
		{in: "org.apache.groovy:groovy", want: Coordinate{Group: "org.apache.groovy", Artifact: "groovy"}},
		{in: "  junit:junit:4.13.2 ", want: Coordinate{Group: "junit", Artifact: "junit", Version: "4.13.2"}},
		{in: "junit", wantErr: true},
		{in: "a:b:c:d", wantErr: true},
		{in: "a::1.0", wantErr: true},
	}

	for _, tc := range testCases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseCoordinate(tc.in)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("Coordinate mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParsePlatformVersion(t *testing.T) {
	testCases := map[string]PlatformVersion{
		"11":                     11,
		"1.8":                    8,
		"VERSION_11":             11,
		"VERSION_1_8":            8,
		"JavaVersion.VERSION_17": 17,
	}
	for in, want := range testCases {
		got, err := ParsePlatformVersion(in)
		require.NoError(t, err, in)
		require.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "eleven", "-3"} {
		_, err := ParsePlatformVersion(in)
		require.Error(t, err, in)
	}
}

func TestParseScope(t *testing.T) {
	for _, sc := range ResolutionOrder {
		got, err := ParseScope(string(sc))
		require.NoError(t, err)
		require.Equal(t, sc, got)
	}
	_, err := ParseScope("implementation")
	require.Error(t, err)
}

func TestEffective_LastDeclarationWins(t *testing.T) {
	d := &ProjectDescriptor{Dependencies: []DependencyDeclaration{
		{Coordinate: Coordinate{Group: "a", Artifact: "x", Version: "1"}, Scope: ScopeCompile},
		{Coordinate: Coordinate{Group: "a", Artifact: "y", Version: "1"}, Scope: ScopeCompile},
		{Coordinate: Coordinate{Group: "a", Artifact: "x", Version: "2"}, Scope: ScopeCompile},
		{Coordinate: Coordinate{Group: "a", Artifact: "x", Version: "9"}, Scope: ScopeTestCompile},
	}}

	want := []Coordinate{
		{Group: "a", Artifact: "x", Version: "2"},
		{Group: "a", Artifact: "y", Version: "1"},
	}
	if diff := cmp.Diff(want, d.Effective(ScopeCompile)); diff != "" {
		t.Errorf("Effective mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, []Coordinate{{Group: "a", Artifact: "x", Version: "9"}}, d.Effective(ScopeTestCompile))
}

func TestMalformedError(t *testing.T) {
	err := Malformed("build.hcl", "missing %q", "group")
	require.ErrorIs(t, err, ErrMalformedConfig)
	require.Equal(t, `malformed config: build.hcl: missing "group"`, err.Error())

	require.Nil(t, WrapMalformed("x", nil))
	wrapped := WrapMalformed("x", err)
	require.Same(t, err, wrapped)
}
