package classify

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestIsEmail(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"john@acme.com", true},
		{"you can reach me at jane.doe+leads@acme.io", true},
		{"JOHN@ACME.COM", true},
		{"john@", false},
		{"@acme.com", false},
		{"no email here", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsEmail(tc.text), "text=%q", tc.text)
	}
}

func TestIsName(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"rithin", true},
		{"John Smith", true},
		{"Mary Jane van Dyke", true},
		{"Cloud Engineering", false},
		{"Data Security Solutions", false},
		{"john123", false},
		{"yes", false},
		{"sure", false},
		{"one two three four five", false},
		{"", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsName(tc.text), "text=%q", tc.text)
	}
}

func TestIsCompanyStrict(t *testing.T) {
	cases := []struct {
		text string
		want bool
	}{
		{"Acme Inc", true},
		{"Acme Inc.", true},
		{"Globex LLC", true},
		{"Stark Industries GmbH", true},
		{"Wayne Ltd", true},
		{"John Smith", false},
		{"rithin", false},
		{"someone@acme.com", false},
		{"a very long phrase that cannot be a company name", false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, IsCompanyStrict(tc.text), "text=%q", tc.text)
	}
}

func TestIsCompany_LooseAcceptsPlainPhrases(t *testing.T) {
	require.True(t, IsCompany("Acme Inc"))
	require.True(t, IsCompany("John Smith"))
	require.True(t, IsCompany("northwind traders"))
	require.False(t, IsCompany("yes"))
	require.False(t, IsCompany("someone@acme.com"))
	require.False(t, IsCompany(""))
}

func TestIsAffirmative(t *testing.T) {
	require.True(t, IsAffirmativeWord("yes"))
	require.True(t, IsAffirmativeWord("  OKAY "))
	require.False(t, IsAffirmativeWord("yes please"))

	require.True(t, IsAffirmative("sounds good"))
	require.True(t, IsAffirmative("absolutly"))
	require.False(t, IsAffirmative("no thanks"))
}

func TestIsDemoRequest(t *testing.T) {
	require.True(t, IsDemoRequest("Can I book a demo?"))
	require.True(t, IsDemoRequest("schedule a demo for next week"))
	require.True(t, IsDemoRequest("please connect me with your team"))
	require.False(t, IsDemoRequest("what products do you sell"))
}

func TestFuzzyContains(t *testing.T) {
	patterns := []string{"schedule demo"}
	require.True(t, FuzzyContains("I want to schedule demo today", patterns, FuzzThreshold))
	require.True(t, FuzzyContains("shedule demo please", patterns, FuzzThreshold))
	require.False(t, FuzzyContains("tell me about pricing", patterns, FuzzThreshold))
	require.False(t, FuzzyContains("", patterns, FuzzThreshold))
}

func TestPartialRatio_WindowsOverLongerText(t *testing.T) {
	require.Equal(t, 100, partialRatio("demo", "i want a demo now"))
	require.Equal(t, 100, partialRatio("demo", "demo"))
	require.Equal(t, 0, partialRatio("", "anything"))
}
