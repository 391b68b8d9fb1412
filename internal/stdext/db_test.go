package stdext

import "testing"

func TestDriverNameAliases(t *testing.T) {
	cases := map[string]string{
		"postgres":   "postgres",
		"postgresql": "postgres",
		"mysql":      "mysql",
		"sqlserver":  "sqlserver",
		"mssql":      "sqlserver",
		"sqlite":     "sqlite",
		"sqlite3":    "sqlite",
	}
	for in, want := range cases {
		got, err := driverName(in)
		if err != nil {
			t.Fatalf("driverName(%q): unexpected error: %v", in, err)
		}
		if got != want {
			t.Errorf("driverName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDriverNameRejectsUnknown(t *testing.T) {
	if _, err := driverName("oracle"); err == nil {
		t.Fatalf("expected an error for an unsupported driver")
	}
}

func TestSQLValueToGloomConversions(t *testing.T) {
	if v := sqlValueToGloom(nil); !v.IsNil() {
		t.Errorf("expected nil to convert to a nil Value, got %#v", v)
	}
	if v := sqlValueToGloom(int64(7)); v.I != 7 {
		t.Errorf("expected int64 7 to convert to VInt(7), got %#v", v)
	}
	if v := sqlValueToGloom(3.5); v.N != 3.5 {
		t.Errorf("expected float64 3.5 to convert to VNum(3.5), got %#v", v)
	}
	if v := sqlValueToGloom(true); !v.B {
		t.Errorf("expected true to convert to VBool(true), got %#v", v)
	}
}
