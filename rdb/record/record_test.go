package record

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/hatlonely/dbadmin/rdb"
	"github.com/hatlonely/dbadmin/rdb/schema"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestTable() *schema.Table {
	table, err := schema.NewTable("user", []schema.Column{
		{Name: "id", NativeType: "INTEGER", PrimaryKey: true},
		{Name: "email", NativeType: "VARCHAR(10)"},
		{Name: "age", NativeType: "int"},
		{Name: "score", NativeType: "bigint"},
		{Name: "active", NativeType: "boolean"},
		{Name: "created_at", NativeType: "timestamp"},
		{Name: "profile", NativeType: "jsonb"},
		{Name: "ratio", NativeType: "numeric(10,2)"},
	})
	if err != nil {
		panic(err)
	}
	return table
}

func TestValidator(t *testing.T) {
	Convey("测试 Validator", t, func() {
		v := NewValidator(newTestTable())

		Convey("各规范类型的投影", func() {
			values, err := v.Validate(Record{
				"email":      "a@x.com",
				"age":        "42",
				"score":      float64(1 << 40),
				"active":     "1",
				"created_at": "2024-01-02",
				"profile":    map[string]any{"k": "v"},
				"ratio":      1.5,
			})
			So(err, ShouldBeNil)
			So(values["email"], ShouldResemble, Text("a@x.com"))
			So(values["age"], ShouldResemble, Integer(42))
			So(values["score"], ShouldResemble, BigInt(1<<40))
			So(values["active"], ShouldResemble, Boolean(true))
			So(values["created_at"], ShouldResemble, Timestamp(time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC).UnixMilli()))
			So(values["profile"], ShouldResemble, JSON(`{"k":"v"}`))
			So(values["ratio"], ShouldResemble, Other(1.5))
		})

		Convey("所有字段可为空", func() {
			values, err := v.Validate(Record{"email": nil, "age": nil, "active": nil, "created_at": nil, "profile": nil})
			So(err, ShouldBeNil)
			for _, value := range values {
				So(value.IsNull(), ShouldBeTrue)
			}
		})

		Convey("未知的键原样透传", func() {
			values, err := v.Validate(Record{"nickname": 7})
			So(err, ShouldBeNil)
			So(values["nickname"], ShouldResemble, Other(7))
		})

		Convey("文本拒绝数字", func() {
			_, err := v.Validate(Record{"email": 12})
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, `"email"`)
		})

		Convey("文本长度上限", func() {
			_, err := v.ValidateField("email", "01234567890")
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
			_, err = v.ValidateField("email", "0123456789")
			So(err, ShouldBeNil)
		})

		Convey("整数拒绝小数和非数字", func() {
			_, err := v.ValidateField("age", 1.5)
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
			_, err = v.ValidateField("age", "abc")
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
			_, err = v.ValidateField("age", true)
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
			value, err := v.ValidateField("age", json.Number("7"))
			So(err, ShouldBeNil)
			So(value, ShouldResemble, Integer(7))
		})

		Convey("布尔接受 0/1", func() {
			value, err := v.ValidateField("active", 0)
			So(err, ShouldBeNil)
			So(value, ShouldResemble, Boolean(false))
			value, err = v.ValidateField("active", "false")
			So(err, ShouldBeNil)
			So(value, ShouldResemble, Boolean(false))
			_, err = v.ValidateField("active", 2)
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
		})

		Convey("时间戳的多种输入", func() {
			ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
			for _, input := range []any{ts, ts.UnixMilli(), "1714979289000", "2024-05-06T07:08:09Z", "2024-05-06 07:08:09"} {
				value, err := v.ValidateField("created_at", input)
				So(err, ShouldBeNil)
				So(value, ShouldResemble, Timestamp(ts.UnixMilli()))
			}
			_, err := v.ValidateField("created_at", "yesterday")
			So(rdb.IsKind(err, rdb.KindValidationFailed), ShouldBeTrue)
		})

		Convey("JSON 字符串视为已序列化文本", func() {
			value, err := v.ValidateField("profile", `{"a":1}`)
			So(err, ShouldBeNil)
			So(value, ShouldResemble, JSON(`{"a":1}`))
			So(value.Decode(), ShouldResemble, map[string]any{"a": float64(1)})
		})
	})
}

func TestFromStorage(t *testing.T) {
	Convey("测试 FromStorage", t, func() {
		table := newTestTable()
		col := func(name string) *schema.Column {
			c, _ := table.Column(name)
			return c
		}

		So(FromStorage(col("email"), []byte("a@x.com")), ShouldResemble, Text("a@x.com"))
		So(FromStorage(col("email"), nil).IsNull(), ShouldBeTrue)
		So(FromStorage(col("age"), int64(3)), ShouldResemble, Integer(3))
		So(FromStorage(col("score"), []byte("12")), ShouldResemble, BigInt(12))
		So(FromStorage(col("active"), int64(1)), ShouldResemble, Boolean(true))
		So(FromStorage(col("active"), false), ShouldResemble, Boolean(false))
		So(FromStorage(col("active"), "t"), ShouldResemble, Boolean(true))

		ts := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
		So(FromStorage(col("created_at"), ts), ShouldResemble, Timestamp(ts.UnixMilli()))
		So(FromStorage(col("created_at"), ts.UnixMilli()), ShouldResemble, Timestamp(ts.UnixMilli()))
		So(FromStorage(col("created_at"), []byte("2024-05-06 07:08:09")), ShouldResemble, Timestamp(ts.UnixMilli()))
		So(FromStorage(col("created_at"), "2000-01-01 00:00:00+00:00"), ShouldResemble, Timestamp(946684800000))

		So(FromStorage(col("profile"), []byte(`{"a":[1,2]}`)).Decode(), ShouldResemble, map[string]any{"a": []any{float64(1), float64(2)}})
		So(FromStorage(col("ratio"), []byte("12.50")), ShouldResemble, Other("12.50"))
	})
}

func TestFromRow(t *testing.T) {
	Convey("测试 FromRow", t, func() {
		rec := FromRow(newTestTable(), map[string]any{
			"id":      int64(1),
			"active":  int64(0),
			"profile": `[1]`,
			"extra":   []byte("x"),
		})
		So(rec, ShouldResemble, Record{
			"id":      int64(1),
			"active":  false,
			"profile": []any{float64(1)},
			"extra":   "x",
		})
	})
}
