package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestRetention(t *testing.T) {
	Convey("Given a retention sweep", t, func() {
		log := &recordLogger{}
		store := newFakeStorage()

		Convey("When retention is disabled", func() {
			uc := NewRetention(store, log, 0)
			So(uc.Execute(context.Background()), ShouldBeNil)
			So(store.deleted, ShouldBeEmpty)
		})

		Convey("When the storage reports old files directly", func() {
			store.oldFiles = []string{"backup-2026-01-01T00-00-00Z.sql.gz"}
			uc := NewRetention(store, log, 7)

			So(uc.Execute(context.Background()), ShouldBeNil)
			So(store.deleted, ShouldResemble, []string{"backup-2026-01-01T00-00-00Z.sql.gz"})
		})

		Convey("When the storage cannot report ages", func() {
			store.oldErr = errors.New("not supported")
			store.listed = []string{
				"backup-2020-01-01T00-00-00Z.sql.gz",
				Filename(time.Now()),
				"unrelated.txt",
			}
			uc := NewRetention(store, log, 7)

			Convey("Ages come from the filenames instead", func() {
				So(uc.Execute(context.Background()), ShouldBeNil)
				So(store.deleted, ShouldResemble, []string{"backup-2020-01-01T00-00-00Z.sql.gz"})

				Convey("Unparsable names are skipped with a warning", func() {
					So(log.warns, ShouldHaveLength, 1)
					So(log.warns[0], ShouldContainSubstring, "unrelated.txt")
				})
			})
		})

		Convey("When a delete fails", func() {
			store.oldFiles = []string{"backup-2026-01-01T00-00-00Z.sql.gz"}
			store.deleteErr = errors.New("forbidden")
			uc := NewRetention(store, log, 7)

			Convey("The sweep logs and moves on", func() {
				So(uc.Execute(context.Background()), ShouldBeNil)
				So(log.errors, ShouldHaveLength, 1)
			})
		})
	})
}

func TestExtractTimestamp(t *testing.T) {
	Convey("Given generated backup filenames", t, func() {
		Convey("The run timestamp parses back out", func() {
			ts, err := extractTimestamp("backup-2026-08-23T10-15-30Z.sql.gz")
			So(err, ShouldBeNil)
			So(ts, ShouldResemble, time.Date(2026, 8, 23, 10, 15, 30, 0, time.UTC))
		})

		Convey("Filename and extractTimestamp round-trip", func() {
			at := time.Date(2025, 12, 31, 23, 59, 59, 0, time.UTC)
			ts, err := extractTimestamp(Filename(at))
			So(err, ShouldBeNil)
			So(ts, ShouldResemble, at)
		})

		Convey("Names without a timestamp are rejected", func() {
			_, err := extractTimestamp("dump.sql.gz")
			So(err, ShouldNotBeNil)
		})
	})
}
