package cohort_test

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/okian/duelo/internal/domain/cohort"
	. "github.com/smartystreets/goconvey/convey"
)

func TestCanonicalKeys(t *testing.T) {
	Convey("Given the closed set of scope kinds", t, func() {
		Convey("When the scope is all items", func() {
			So(cohort.AllScope{}.CanonicalKey(), ShouldEqual, "all")
		})

		Convey("When the scope is a path", func() {
			Convey("Then trailing separators and cleaning do not change the key", func() {
				So(cohort.PathScope{Path: "notes/work"}.CanonicalKey(), ShouldEqual, "path:notes/work")
				So(cohort.PathScope{Path: "notes/work/"}.CanonicalKey(), ShouldEqual, "path:notes/work")
				So(cohort.PathScope{Path: "notes//work"}.CanonicalKey(), ShouldEqual, "path:notes/work")
				So(cohort.PathScope{Path: `notes\work`}.CanonicalKey(), ShouldEqual, "path:notes/work")
			})

			Convey("And the vault root collapses to an empty parameter", func() {
				So(cohort.PathScope{Path: "/"}.CanonicalKey(), ShouldEqual, "path:")
			})
		})

		Convey("When the scope is a tag set", func() {
			Convey("Then discovery order, case, and '#' prefixes do not change the key", func() {
				a := cohort.TagScope{Tags: []string{"#Review", "draft"}}
				b := cohort.TagScope{Tags: []string{"draft", "review"}}
				So(a.CanonicalKey(), ShouldEqual, "tags:draft,review")
				So(a.CanonicalKey(), ShouldEqual, b.CanonicalKey())
			})

			Convey("And duplicate and empty tags are dropped", func() {
				s := cohort.TagScope{Tags: []string{"a", "", "a", " #A "}}
				So(s.CanonicalKey(), ShouldEqual, "tags:a")
			})
		})

		Convey("When the scope is a query", func() {
			Convey("Then whitespace runs collapse", func() {
				a := cohort.QueryScope{Query: "  status:  open  "}
				So(a.CanonicalKey(), ShouldEqual, "query:status: open")
			})
		})
	})
}

func TestDefinitionJSON(t *testing.T) {
	Convey("Given definitions of every kind", t, func() {
		now := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		defs := []cohort.Definition{
			{Scope: cohort.AllScope{}, Label: "everything", UpdatedAt: now},
			{Scope: cohort.PathScope{Path: "notes/work"}, UpdatedAt: now},
			{Scope: cohort.TagScope{Tags: []string{"draft", "review"}}, UpdatedAt: now},
			{Scope: cohort.QueryScope{Query: "status: open"}, Overrides: json.RawMessage(`{"publish":["rank"]}`), UpdatedAt: now},
		}

		Convey("When each is marshaled and unmarshaled", func() {
			for _, def := range defs {
				data, err := json.Marshal(def)
				So(err, ShouldBeNil)

				var got cohort.Definition
				So(json.Unmarshal(data, &got), ShouldBeNil)

				Convey("Then "+def.Key()+" round-trips", func() {
					So(got.Key(), ShouldEqual, def.Key())
					So(got.Label, ShouldEqual, def.Label)
					So(got.UpdatedAt.Equal(def.UpdatedAt), ShouldBeTrue)
					So(string(got.Overrides), ShouldEqual, string(def.Overrides))
				})
			}
		})

		Convey("When the kind tag is unknown", func() {
			var got cohort.Definition
			err := json.Unmarshal([]byte(`{"kind":"smartfolder"}`), &got)

			Convey("Then the parse fails with the sentinel", func() {
				So(err, ShouldNotBeNil)
				So(errors.Is(err, cohort.ErrUnknownKind), ShouldBeTrue)
			})
		})
	})
}
