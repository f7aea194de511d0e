package store

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"github.com/AnatoleLucet/signet/model"
	"github.com/AnatoleLucet/signet/netfile"
)

func echoProgram(t *testing.T, enc netfile.Encoding) []byte {
	data, err := netfile.Encode(enc, netfile.File{
		Format:  netfile.FormatName,
		Version: netfile.SupportedVersion,
		Name:    "echo",
		Inputs:  []int{0},
		Outputs: []int{0},
		Result:  "single",
	})
	if err != nil {
		t.Fatal(err)
	}
	return data
}

func TestStores(t *testing.T) {
	backends := map[string]func(t *testing.T) Store{
		"memory": func(*testing.T) Store { return NewMemoryStore() },
		"sqlite": func(t *testing.T) Store { return NewSQLiteStore(filepath.Join(t.TempDir(), "models.db")) },
	}

	for name, open := range backends {
		Convey("Given an initialized "+name+" store", t, func() {
			ctx := context.Background()
			s := open(t)
			So(s.Init(ctx), ShouldBeNil)
			defer CloseIfSupported(s)

			Convey("Puts are stamped and readable", func() {
				rec, err := s.Put(ctx, Record{Name: "echo", Encoding: netfile.EncodingJSON, Payload: echoProgram(t, netfile.EncodingJSON)})
				So(err, ShouldBeNil)
				So(rec.Revision, ShouldNotBeEmpty)
				So(rec.StoredAt.IsZero(), ShouldBeFalse)

				got, ok, err := s.Get(ctx, "echo")
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)
				So(got.Revision, ShouldEqual, rec.Revision)
				So(got.Encoding, ShouldEqual, netfile.EncodingJSON)
				So(got.Payload, ShouldResemble, rec.Payload)
				So(got.StoredAt.Equal(rec.StoredAt), ShouldBeTrue)

				Convey("Overwriting replaces the revision", func() {
					again, err := s.Put(ctx, Record{Name: "echo", Encoding: netfile.EncodingCBOR, Payload: echoProgram(t, netfile.EncodingCBOR)})
					So(err, ShouldBeNil)
					So(again.Revision, ShouldNotEqual, rec.Revision)

					got, _, _ := s.Get(ctx, "echo")
					So(got.Encoding, ShouldEqual, netfile.EncodingCBOR)
				})

				Convey("Deleting removes it", func() {
					ok, err := s.Delete(ctx, "echo")
					So(err, ShouldBeNil)
					So(ok, ShouldBeTrue)

					_, ok, err = s.Get(ctx, "echo")
					So(err, ShouldBeNil)
					So(ok, ShouldBeFalse)

					ok, _ = s.Delete(ctx, "echo")
					So(ok, ShouldBeFalse)
				})
			})

			Convey("Listing is sorted by name", func() {
				for _, n := range []string{"zeta", "alpha", "mid"} {
					_, err := s.Put(ctx, Record{Name: n, Encoding: netfile.EncodingMsgpack, Payload: []byte{0x80}})
					So(err, ShouldBeNil)
				}

				records, err := s.List(ctx)
				So(err, ShouldBeNil)
				So(records, ShouldHaveLength, 3)
				So(records[0].Name, ShouldEqual, "alpha")
				So(records[2].Name, ShouldEqual, "zeta")
			})

			Convey("Invalid records are refused", func() {
				_, err := s.Put(ctx, Record{Encoding: netfile.EncodingJSON})
				So(err, ShouldNotBeNil)

				_, err = s.Put(ctx, Record{Name: "x", Encoding: "pickle"})
				So(err, ShouldNotBeNil)
			})

			Convey("Stored programs load as models", func() {
				_, err := s.Put(ctx, Record{Name: "echo", Encoding: netfile.EncodingMsgpack, Payload: echoProgram(t, netfile.EncodingMsgpack)})
				So(err, ShouldBeNil)

				m, err := NewLoader(ctx, s).Load("echo")
				So(err, ShouldBeNil)

				res, err := m.Forward([]model.Tensor{model.FromVector(model.Vector{1, 2})})
				So(err, ShouldBeNil)
				tensor, ok := res.Tensor()
				So(ok, ShouldBeTrue)
				So(tensor.Data(), ShouldResemble, []float64{1, 2})

				_, err = NewLoader(ctx, s).Load("missing")
				So(errors.Is(err, os.ErrNotExist), ShouldBeTrue)
			})
		})
	}
}

func TestUninitialized(t *testing.T) {
	Convey("Stores refuse work before Init", t, func() {
		ctx := context.Background()
		for _, s := range []Store{NewMemoryStore(), NewSQLiteStore("unused.db")} {
			_, err := s.Put(ctx, Record{Name: "x", Encoding: netfile.EncodingJSON})
			So(err, ShouldEqual, ErrNotInitialized)

			_, _, err = s.Get(ctx, "x")
			So(err, ShouldEqual, ErrNotInitialized)
		}

		So(NewSQLiteStore("").Init(ctx), ShouldNotBeNil)
	})

	Convey("Stores that failed to open say which file", t, func() {
		path := filepath.Join(t.TempDir(), "missing", "models.db")
		s := NewSQLiteStore(path)

		err := s.Init(context.Background())
		So(err, ShouldNotBeNil)
		So(err.Error(), ShouldStartWith, "open store "+path)

		_, _, err = s.Get(context.Background(), "x")
		So(err, ShouldEqual, ErrNotInitialized)
	})
}

func TestClose(t *testing.T) {
	Convey("Closing stores", t, func() {
		ctx := context.Background()

		Convey("Memory stores have nothing to close", func() {
			s := NewMemoryStore()
			So(s.Init(ctx), ShouldBeNil)
			So(CloseIfSupported(s), ShouldBeNil)
		})

		Convey("Closed sqlite stores refuse work", func() {
			s := NewSQLiteStore(filepath.Join(t.TempDir(), "models.db"))
			So(s.Init(ctx), ShouldBeNil)
			So(CloseIfSupported(s), ShouldBeNil)

			_, _, err := s.Get(ctx, "x")
			So(err, ShouldEqual, ErrNotInitialized)

			// a second close is a no-op
			So(CloseIfSupported(s), ShouldBeNil)
		})
	})
}

func TestImport(t *testing.T) {
	Convey("Given a program file on disk", t, func() {
		ctx := context.Background()
		dir := t.TempDir()
		path := filepath.Join(dir, "echo.json")
		So(os.WriteFile(path, echoProgram(t, netfile.EncodingJSON), 0o644), ShouldBeNil)

		s := NewMemoryStore()
		So(s.Init(ctx), ShouldBeNil)

		Convey("Import stores it under the given name", func() {
			rec, err := Import(ctx, s, "echo", path)
			So(err, ShouldBeNil)
			So(rec.Encoding, ShouldEqual, netfile.EncodingJSON)

			_, ok, _ := s.Get(ctx, "echo")
			So(ok, ShouldBeTrue)
		})

		Convey("Import refuses files that are not programs", func() {
			bad := filepath.Join(dir, "bad.json")
			So(os.WriteFile(bad, []byte(`{"format": "other"}`), 0o644), ShouldBeNil)

			_, err := Import(ctx, s, "bad", bad)
			So(err, ShouldNotBeNil)

			_, ok, _ := s.Get(ctx, "bad")
			So(ok, ShouldBeFalse)
		})
	})
}

func TestFactory(t *testing.T) {
	Convey("NewStore picks backends by kind", t, func() {
		s, err := NewStore("", "")
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &MemoryStore{})

		s, err = NewStore("sqlite", "x.db")
		So(err, ShouldBeNil)
		So(s, ShouldHaveSameTypeAs, &SQLiteStore{})

		_, err = NewStore("cassandra", "")
		So(err, ShouldNotBeNil)
	})
}
