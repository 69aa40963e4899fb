package cli

import (
	"reflect"
	"testing"

	"github.com/spf13/cobra"
)

func TestRegisterBooleanFlagParsesValues(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name         string
		defaultValue bool
		arguments    []string
		expected     bool
		expectError  bool
	}{
		{
			name:         "defaults_to_false",
			defaultValue: false,
			arguments:    []string{},
			expected:     false,
		},
		{
			name:         "sets_true_without_value",
			defaultValue: false,
			arguments:    []string{"--feature"},
			expected:     true,
		},
		{
			name:         "sets_false_with_equals",
			defaultValue: true,
			arguments:    []string{"--feature=false"},
			expected:     false,
		},
		{
			name:         "sets_false_with_no_literal",
			defaultValue: true,
			arguments:    []string{"--feature", "no"},
			expected:     false,
		},
		{
			name:         "sets_true_with_on_literal",
			defaultValue: false,
			arguments:    []string{"--feature", "on"},
			expected:     true,
		},
		{
			name:         "shorthand_with_separate_literal",
			defaultValue: true,
			arguments:    []string{"-f", "off"},
			expected:     false,
		},
		{
			name:         "ignores_non_boolean_trailing_value",
			defaultValue: false,
			arguments:    []string{"--feature", "backend"},
			expected:     true,
		},
		{
			name:         "rejects_unknown_literal",
			defaultValue: false,
			arguments:    []string{"--feature=maybe"},
			expectError:  true,
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "boolean-test"}
			flagSet := command.Flags()
			flagValue := !testCase.defaultValue
			registerBooleanFlagP(flagSet, &flagValue, "feature", "f", testCase.defaultValue, "toggle feature behaviour")
			normalizedArguments := normalizeBooleanFlagArguments(command, testCase.arguments)
			parseErr := command.ParseFlags(normalizedArguments)
			if testCase.expectError {
				if parseErr == nil {
					t.Fatalf("expected parse error for arguments %v", testCase.arguments)
				}
				return
			}
			if parseErr != nil {
				t.Fatalf("unexpected parse error: %v", parseErr)
			}
			if flagValue != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, flagValue)
			}
		})
	}
}

func TestNormalizeBooleanFlagArgumentsKeepsPositionals(t *testing.T) {
	t.Parallel()

	root := &cobra.Command{Use: "root"}
	var copyEnabled bool
	var label string
	child := &cobra.Command{Use: "run"}
	registerBooleanFlag(child.Flags(), &copyEnabled, "copy", false, "copy")
	child.Flags().StringVar(&label, "label", "", "label")
	root.AddCommand(child)

	testCases := []struct {
		name      string
		arguments []string
		expected  []string
	}{
		{
			name:      "joins_literal",
			arguments: []string{"run", "--copy", "no", "backend"},
			expected:  []string{"run", "--copy=no", "backend"},
		},
		{
			name:      "leaves_template_name",
			arguments: []string{"run", "--copy", "backend"},
			expected:  []string{"run", "--copy", "backend"},
		},
		{
			name:      "ignores_string_flags",
			arguments: []string{"run", "--label", "yes"},
			expected:  []string{"run", "--label", "yes"},
		},
		{
			name:      "stops_at_terminator",
			arguments: []string{"run", "--", "--copy", "yes"},
			expected:  []string{"run", "--", "--copy", "yes"},
		},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			actual := normalizeBooleanFlagArguments(root, testCase.arguments)
			if !reflect.DeepEqual(actual, testCase.expected) {
				t.Fatalf("expected %v, got %v", testCase.expected, actual)
			}
		})
	}
}

func TestResolveBooleanFlagPrefersExplicitFlag(t *testing.T) {
	t.Parallel()

	configuredTrue := true
	testCases := []struct {
		name       string
		arguments  []string
		configured *bool
		expected   bool
	}{
		{name: "configuration_used_when_flag_unset", arguments: nil, configured: &configuredTrue, expected: true},
		{name: "explicit_flag_wins", arguments: []string{"--summary=false"}, configured: &configuredTrue, expected: false},
		{name: "flag_default_without_configuration", arguments: nil, configured: nil, expected: false},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()
			command := &cobra.Command{Use: "resolve-test"}
			var summary bool
			registerBooleanFlag(command.Flags(), &summary, "summary", false, "summary")
			if err := command.ParseFlags(testCase.arguments); err != nil {
				t.Fatalf("parse flags: %v", err)
			}
			if actual := resolveBooleanFlag(command.Flags(), "summary", summary, testCase.configured); actual != testCase.expected {
				t.Fatalf("expected %t, got %t", testCase.expected, actual)
			}
		})
	}
}
