// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"strings"
	"testing"
)

func TestValues(t *testing.T) {
	t.Parallel()

	values := Values()
	if len(values) != len(issues) {
		t.Fatalf("len(Values()) = %d, want %d", len(values), len(issues))
	}
	for i, issue := range values {
		if want := Id(i + 1); issue.Id() != want {
			t.Errorf("Values()[%d].Id() = %d, want %d", i, issue.Id(), want)
		}
	}
}

func TestGet(t *testing.T) {
	t.Parallel()

	tests := []struct {
		id      Id
		heading string
	}{
		{ConfigLoadFailedId, "# Failed to load configuration!"},
		{DockerNotAvailableId, "# Docker is not available!"},
		{ServiceProvisionFailedId, "# A database service could not be started!"},
		{UnknownServiceId, "# Unknown service!"},
		{ExtensionDownloadFailedId, "# Failed to download the SQLite extension!"},
		{BuildToolNotFoundId, "# Build tool not found!"},
		{TargetFailedId, "# A target failed!"},
	}

	for _, tt := range tests {
		t.Run(tt.heading, func(t *testing.T) {
			t.Parallel()

			issue := Get(tt.id)
			if issue == nil {
				t.Fatalf("Get(%d) returned nil", tt.id)
			}
			if !strings.Contains(string(issue.MarkdownMsg()), tt.heading) {
				t.Errorf("markdown for %d missing heading %q", tt.id, tt.heading)
			}
		})
	}

	if Get(0) != nil {
		t.Error("Get(0) should return nil")
	}
	if Get(Id(len(issues)+1)) != nil {
		t.Error("Get() past the last id should return nil")
	}
}

func TestIssue_DocLinksCopy(t *testing.T) {
	t.Parallel()

	issue := Get(ExtensionDownloadFailedId)
	links := issue.DocLinks()
	if len(links) == 0 {
		t.Fatal("expected doc links")
	}
	links[0] = "https://example.invalid"
	if issue.DocLinks()[0] == "https://example.invalid" {
		t.Error("DocLinks() should return a copy")
	}
}

func TestIssue_Render(t *testing.T) {
	t.Parallel()

	for _, issue := range Values() {
		out, err := issue.Render("notty")
		if err != nil {
			t.Fatalf("Render(%d) error = %v", issue.Id(), err)
		}
		if strings.TrimSpace(out) == "" {
			t.Errorf("Render(%d) produced empty output", issue.Id())
		}
	}
}

func TestIssue_RenderLinks(t *testing.T) {
	t.Parallel()

	withLinks, err := Get(BuildToolNotFoundId).Render("notty")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(withLinks, "See also") || !strings.Contains(withLinks, "rustup.rs") {
		t.Errorf("rendered output should list doc links:\n%s", withLinks)
	}

	noLinks, err := Get(TargetFailedId).Render("notty")
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(noLinks, "See also") {
		t.Errorf("rendered output should not have a links section:\n%s", noLinks)
	}
}
