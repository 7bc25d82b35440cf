package dumper

import (
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func TestValueLiteral(t *testing.T) {
	Convey("Given tagged column values", t, func() {
		Convey("NULL renders bare", func() {
			So(Null().Literal(), ShouldEqual, "NULL")
		})

		Convey("Text is single-quoted and escaped", func() {
			So(Text("alice").Literal(), ShouldEqual, "'alice'")
			So(Text("o'neil").Literal(), ShouldEqual, `'o\'neil'`)
			So(Text("a\\b").Literal(), ShouldEqual, `'a\\b'`)
			So(Text("line1\nline2").Literal(), ShouldEqual, `'line1\nline2'`)
			So(Text("cr\rhere").Literal(), ShouldEqual, `'cr\rhere'`)
			So(Text("nul\x00byte").Literal(), ShouldEqual, `'nul\0byte'`)
			So(Text("sub\x1achar").Literal(), ShouldEqual, `'sub\Zchar'`)
		})

		Convey("Numbers render as raw literals", func() {
			So(Integer("42").Literal(), ShouldEqual, "42")
			So(Integer("-7").Literal(), ShouldEqual, "-7")
			So(Float("3.14").Literal(), ShouldEqual, "3.14")
		})

		Convey("Timestamps render as quoted date-time literals", func() {
			ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
			So(Timestamp(ts).Literal(), ShouldEqual, "'2024-01-02 03:04:05'")
		})

		Convey("Bytes render as a hex literal", func() {
			So(Bytes([]byte{0xDE, 0xAD}).Literal(), ShouldEqual, "0xDEAD")
			So(Bytes(nil).Literal(), ShouldEqual, "''")
		})
	})
}

func TestClassify(t *testing.T) {
	Convey("Given raw driver values", t, func() {
		Convey("nil becomes NULL", func() {
			So(classify(nil, "INT").Kind(), ShouldEqual, KindNull)
		})

		Convey("Go numerics keep their kind", func() {
			So(classify(int64(5), "BIGINT").Literal(), ShouldEqual, "5")
			So(classify(float64(2.5), "DOUBLE").Literal(), ShouldEqual, "2.5")
		})

		Convey("time.Time becomes a timestamp", func() {
			ts := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
			So(classify(ts, "DATETIME").Kind(), ShouldEqual, KindTimestamp)
		})

		Convey("[]byte is disambiguated by column type", func() {
			So(classify([]byte("123"), "BIGINT").Literal(), ShouldEqual, "123")
			So(classify([]byte("1.5"), "DECIMAL").Literal(), ShouldEqual, "1.5")
			So(classify([]byte("hello"), "VARCHAR").Literal(), ShouldEqual, "'hello'")
			So(classify([]byte{0x01}, "BLOB").Kind(), ShouldEqual, KindBytes)
		})

		Convey("strings stay text unless the column is numeric", func() {
			So(classify("bob", "VARCHAR").Literal(), ShouldEqual, "'bob'")
			So(classify("9", "INT").Literal(), ShouldEqual, "9")
		})
	})
}

func TestFilterSystemSchemas(t *testing.T) {
	Convey("Given a discovered database list", t, func() {
		Convey("System schemas are dropped regardless of case", func() {
			names := []string{"mysql", "SYS", "Performance_Schema", "information_schema", "InnoDB", "shop", "Blog"}
			So(filterSystemSchemas(names), ShouldResemble, []string{"shop", "Blog"})
		})

		Convey("Empty names are dropped too", func() {
			So(filterSystemSchemas([]string{"", "shop"}), ShouldResemble, []string{"shop"})
		})

		Convey("An all-system list filters to nothing", func() {
			So(filterSystemSchemas([]string{"mysql", "sys"}), ShouldBeEmpty)
		})
	})
}
