package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLocalStorage(t *testing.T) {
	Convey("Given a LocalStorage", t, func() {
		tempDir, err := os.MkdirTemp("", "local_storage_test")
		So(err, ShouldBeNil)
		defer os.RemoveAll(tempDir)

		ctx := context.Background()

		Convey("NewLocal", func() {
			Convey("When creating with a valid path", func() {
				store, err := NewLocal(tempDir)

				Convey("It should create successfully", func() {
					So(err, ShouldBeNil)
					So(store, ShouldNotBeNil)
					So(store.basePath, ShouldEqual, tempDir)
				})
			})

			Convey("When creating with a non-existent path", func() {
				newPath := filepath.Join(tempDir, "new", "nested", "dir")
				store, err := NewLocal(newPath)

				Convey("It should create the directory and succeed", func() {
					So(err, ShouldBeNil)
					So(store, ShouldNotBeNil)

					info, err := os.Stat(newPath)
					So(err, ShouldBeNil)
					So(info.IsDir(), ShouldBeTrue)
				})
			})
		})

		Convey("Upload", func() {
			store, err := NewLocal(tempDir)
			So(err, ShouldBeNil)

			Convey("When uploading an existing file", func() {
				source := filepath.Join(tempDir, "source.sql.gz")
				So(os.WriteFile(source, []byte("dump bytes"), 0644), ShouldBeNil)

				err := store.Upload(ctx, source, "backup-2026-08-23T10-15-30Z.sql.gz")

				Convey("It should copy under the remote name", func() {
					So(err, ShouldBeNil)

					copied, err := os.ReadFile(filepath.Join(tempDir, "backup-2026-08-23T10-15-30Z.sql.gz"))
					So(err, ShouldBeNil)
					So(string(copied), ShouldEqual, "dump bytes")
				})
			})

			Convey("When the source file is missing", func() {
				err := store.Upload(ctx, filepath.Join(tempDir, "missing"), "x.sql.gz")

				Convey("It should return an error", func() {
					So(err, ShouldNotBeNil)
					So(err.Error(), ShouldContainSubstring, "failed to open source")
				})
			})
		})

		Convey("List and Delete", func() {
			store, err := NewLocal(tempDir)
			So(err, ShouldBeNil)

			So(os.WriteFile(filepath.Join(tempDir, "a.sql.gz"), []byte("a"), 0644), ShouldBeNil)
			So(os.WriteFile(filepath.Join(tempDir, "b.sql.gz"), []byte("b"), 0644), ShouldBeNil)
			So(os.MkdirAll(filepath.Join(tempDir, "subdir"), 0755), ShouldBeNil)

			Convey("List returns files only", func() {
				files, err := store.List(ctx)
				So(err, ShouldBeNil)
				So(files, ShouldHaveLength, 2)
				So(files, ShouldContain, "a.sql.gz")
				So(files, ShouldContain, "b.sql.gz")
			})

			Convey("Delete removes the named file", func() {
				So(store.Delete(ctx, "a.sql.gz"), ShouldBeNil)

				_, err := os.Stat(filepath.Join(tempDir, "a.sql.gz"))
				So(os.IsNotExist(err), ShouldBeTrue)
			})

			Convey("Delete on a missing file errors", func() {
				So(store.Delete(ctx, "ghost.sql.gz"), ShouldNotBeNil)
			})
		})

		Convey("GetOldFiles", func() {
			store, err := NewLocal(tempDir)
			So(err, ShouldBeNil)

			oldFile := filepath.Join(tempDir, "old.sql.gz")
			newFile := filepath.Join(tempDir, "new.sql.gz")
			So(os.WriteFile(oldFile, []byte("old"), 0644), ShouldBeNil)
			So(os.WriteFile(newFile, []byte("new"), 0644), ShouldBeNil)

			past := time.Now().AddDate(0, 0, -30)
			So(os.Chtimes(oldFile, past, past), ShouldBeNil)

			Convey("Only files older than the cutoff are returned", func() {
				files, err := store.GetOldFiles(ctx, time.Now().AddDate(0, 0, -7))
				So(err, ShouldBeNil)
				So(files, ShouldResemble, []string{"old.sql.gz"})
			})
		})
	})
}
