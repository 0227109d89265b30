package ident

import "testing"

func TestTryParseEmpty(t *testing.T) {
	if _, err := TryParse(""); err == nil {
		t.Fatalf("expected error for empty identifier")
	}
}

func TestApplyBoundariesPanicsTwice(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on second ApplyBoundaries call")
		}
	}()

	id, _ := TryParse("foo_bar")
	id = id.ApplyBoundaries(Boundaries{Underscore})
	id.ApplyBoundaries(Boundaries{Underscore})
}

func TestSnakeCaseRoundTrip(t *testing.T) {
	id, _ := TryParse("foo_bar_baz")
	id = id.ApplyBoundaries(Boundaries{Underscore})

	if err := id.CheckValidity(); err != nil {
		t.Fatalf("unexpected validity error: %v", err)
	}

	if got := id.ToCase(SnakeCase); got != "foo_bar_baz" {
		t.Fatalf("got %q", got)
	}

	if got := id.ToCase(PascalCase); got != "FooBarBaz" {
		t.Fatalf("got %q", got)
	}
}

func TestLeadingUnderscorePreserved(t *testing.T) {
	id, _ := TryParse("_foo_bar")
	id = id.ApplyBoundaries(Boundaries{Underscore})

	if got := id.ToCase(SnakeCase); got != "_foo_bar" {
		t.Fatalf("got %q", got)
	}
}

func TestCheckValidityInvalidCharacter(t *testing.T) {
	id, _ := TryParse("foo-bar!baz")
	id = id.ApplyBoundaries(Boundaries{Hyphen})

	err := id.CheckValidity()
	if err == nil {
		t.Fatalf("expected invalid character error")
	}

	ierr, ok := err.(*Error)
	if !ok || ierr.Kind != "InvalidCharacter" {
		t.Fatalf("expected InvalidCharacter, got %v", err)
	}

	if ierr.Char != '!' {
		t.Fatalf("expected '!' got %q", ierr.Char)
	}
}

func TestDuplicateSuffix(t *testing.T) {
	id, _ := TryParse("Buf")
	id = id.ApplyBoundaries(Boundaries{Underscore})
	id = id.WithDuplicateID(1)

	if got := id.ToCase(PascalCase); got != "BufDup1" {
		t.Fatalf("got %q", got)
	}
}

func TestEqualityByWordsWhenOriginalsDiffer(t *testing.T) {
	a, _ := TryParse("foo_bar")
	a = a.ApplyBoundaries(Boundaries{Underscore})

	b, _ := TryParse("foo-bar")
	b = b.ApplyBoundaries(Boundaries{Hyphen})

	if !a.Equal(b) {
		t.Fatalf("expected equal by word sequence")
	}
}

func TestEqualityFailsOnDifferentDuplicateID(t *testing.T) {
	a, _ := TryParse("foo")
	a = a.ApplyBoundaries(Boundaries{Underscore}).WithDuplicateID(1)

	b, _ := TryParse("foo")
	b = b.ApplyBoundaries(Boundaries{Underscore}).WithDuplicateID(2)

	if a.Equal(b) {
		t.Fatalf("expected inequality across differing duplicate ids")
	}
}

func TestHashMatchesOnOriginalAndDuplicateIDOnly(t *testing.T) {
	a, _ := TryParse("foo_bar")
	a = a.ApplyBoundaries(Boundaries{Underscore})

	b, _ := TryParse("foo_bar")
	b = b.ApplyBoundaries(Boundaries{Hyphen})

	if a.Hash() != b.Hash() {
		t.Fatalf("expected equal hashes for identical (original, duplicate_id)")
	}

	if !a.Equals(b) {
		t.Fatalf("expected Equals to agree with Equal")
	}
}

func TestHashDiffersAcrossDuplicateID(t *testing.T) {
	a, _ := TryParse("foo")
	a = a.ApplyBoundaries(Boundaries{Underscore}).WithDuplicateID(1)

	b, _ := TryParse("foo")
	b = b.ApplyBoundaries(Boundaries{Underscore}).WithDuplicateID(2)

	if a.Hash() == b.Hash() {
		t.Fatalf("expected different hashes across differing duplicate ids")
	}
}

func TestCamelCaseBoundaryDetection(t *testing.T) {
	id, _ := TryParse("XMLHttpRequest")
	id = id.ApplyBoundaries(Boundaries{UpperUpperLower, LowerUpper})

	if got := id.ToCase(SnakeCase); got != "xml_http_request" {
		t.Fatalf("got %q", got)
	}
}
