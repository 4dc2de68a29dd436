package identity_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/okian/duelo/internal/adapters/identity"
	. "github.com/smartystreets/goconvey/convey"
)

func TestRegistry(t *testing.T) {
	ctx := context.Background()

	Convey("Given a fresh registry", t, func() {
		reg := identity.NewRegistry()

		Convey("When the same item is asked for twice", func() {
			first := reg.IdentityOf(ctx, "notes/alpha.md")
			second := reg.IdentityOf(ctx, "notes/alpha.md")

			Convey("Then the id is stable", func() {
				So(first, ShouldNotBeEmpty)
				So(second, ShouldEqual, first)
			})
		})

		Convey("When two distinct items are registered", func() {
			a := reg.IdentityOf(ctx, "a")
			b := reg.IdentityOf(ctx, "b")

			Convey("Then their ids differ", func() {
				So(a, ShouldNotEqual, b)
			})
		})
	})

	Convey("Given a seeded registry", t, func() {
		reg := identity.NewRegistry(identity.WithSeed(map[string]string{"a": "id-a"}))

		Convey("Then seeded items keep their ids", func() {
			So(reg.IdentityOf(ctx, "a"), ShouldEqual, "id-a")
		})

		Convey("And the mapping export includes mints and seeds", func() {
			reg.IdentityOf(ctx, "b")
			known := reg.Known()
			So(known["a"], ShouldEqual, "id-a")
			So(known, ShouldHaveLength, 2)
		})
	})

	Convey("Given a deterministic id function", t, func() {
		n := 0
		reg := identity.NewRegistry(identity.WithIDFunc(func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		}))

		Convey("Then minted ids follow it", func() {
			So(reg.IdentityOf(ctx, "x"), ShouldEqual, "id-1")
			So(reg.IdentityOf(ctx, "y"), ShouldEqual, "id-2")
			So(reg.IdentityOf(ctx, "x"), ShouldEqual, "id-1")
		})
	})
}
