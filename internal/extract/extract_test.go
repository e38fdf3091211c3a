package extract

import (
	"reflect"
	"testing"
)

func TestEmails(t *testing.T) {
	text := "Contact: info@acme-corp.de, noreply@sentry.io"
	got := Emails(text)
	want := []string{"info@acme-corp.de"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emails = %v, want %v", got, want)
	}
}

func TestEmailsNormalizeAndSort(t *testing.T) {
	text := `<a href="mailto:Sales@Acme.de">Sales</a> or INFO@ACME.DE at example: test@example.com`
	got := Emails(text)
	want := []string{"info@acme.de", "sales@acme.de"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emails = %v, want %v", got, want)
	}
}

func TestEmailsInsideMailtoHref(t *testing.T) {
	// The address lives only in the href attribute, never in visible text.
	got := Emails(`<a href="mailto:sales@acme.de">write us</a>`)
	want := []string{"sales@acme.de"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Emails = %v, want %v", got, want)
	}
}

func TestEmailsIdempotent(t *testing.T) {
	first := Emails("write to info@acme.de and Sales@acme.de today")
	second := Emails(joinSpace(first))
	if !reflect.DeepEqual(first, second) {
		t.Errorf("re-extraction changed the set: %v vs %v", first, second)
	}
}

func TestPhonesStrictBeatsJunk(t *testing.T) {
	got := Phones("Call us at +49 30 1234 5678 or ext 2147483647")
	want := []string{"+49 30 1234 5678"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Phones = %v, want %v", got, want)
	}
}

func TestPhonesLooseFallback(t *testing.T) {
	// No international prefix anywhere: the loose pattern applies.
	got := Phones("Reception: (030) 1234 5678 90")
	if len(got) != 1 {
		t.Fatalf("Phones = %v, want one loose match", got)
	}
}

func TestPhonesJunkSequences(t *testing.T) {
	for _, text := range []string{
		"phone 9999999999",
		"phone 1234567890",
		"id 2147483647",
		"phone 0123456789",
	} {
		if got := Phones(text); len(got) != 0 {
			t.Errorf("Phones(%q) = %v, want none", text, got)
		}
	}
}

func TestPhonesDedupBySignature(t *testing.T) {
	got := Phones("+49 30 1234 5678 or +49-30-1234-5678")
	if len(got) != 1 {
		t.Errorf("expected signature dedup, got %v", got)
	}
}

func TestPhonesPrefixedSortFirst(t *testing.T) {
	got := Phones("+1 212 555 0184 and also +44 20 7946 0958")
	if len(got) != 2 {
		t.Fatalf("Phones = %v", got)
	}
	for _, p := range got {
		if p[0] != '+' {
			t.Errorf("unexpected bare number %q", p)
		}
	}
}

func TestSocialLinks(t *testing.T) {
	html := `<a href="https://www.linkedin.com/company/acme">in</a>
	<a href="https://x.com/acme">x</a>
	<a href="https://facebook.com/acme">fb</a>
	<a href="https://acme.de/about">about</a>`
	got := SocialLinks(html)
	if len(got) != 3 {
		t.Errorf("SocialLinks = %v, want 3 entries", got)
	}
}

func TestAddressHeuristic(t *testing.T) {
	text := "Welcome to Acme\nHauptstrasse 5, 10115 Berlin\nCall us today"
	got := Address(text)
	if got != "Hauptstrasse 5, 10115 Berlin" {
		t.Errorf("Address = %q", got)
	}

	// Fallback line.
	text = "Some intro text here\nThe company is headquartered in Berlin\nmore"
	got = Address(text)
	if got != "The company is headquartered in Berlin" {
		t.Errorf("Address fallback = %q", got)
	}

	if got := Address("short\nnothing to see in this line"); got != "" {
		t.Errorf("expected empty address, got %q", got)
	}
}

func TestAddressCollapsesWhitespace(t *testing.T) {
	got := Address("Office:   12   Baker   Street,   20500   London   somewhere")
	if got != "Office: 12 Baker Street, 20500 London somewhere" {
		t.Errorf("Address = %q", got)
	}
}

func TestDomains(t *testing.T) {
	text := "Their official site is acme-corp.de and they are on linkedin.com/company/acme."
	got := Domains(text)
	want := []string{"https://acme-corp.de"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Domains = %v, want %v", got, want)
	}
}

func TestExtractorsToleratesGarbage(t *testing.T) {
	garbage := "<<<>>>\x00\xff<a href=</div>@@@.."
	_ = Emails(garbage)
	_ = Phones(garbage)
	_ = SocialLinks(garbage)
	_ = Address(garbage)
	_ = Domains(garbage)
}

func joinSpace(items []string) string {
	out := ""
	for _, it := range items {
		out += it + " "
	}
	return out
}
