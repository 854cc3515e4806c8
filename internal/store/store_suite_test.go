package store_test

import (
	"os"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestStore(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Store Suite")
}

var _ = BeforeSuite(func() {
	// The suite runs against a shared in-memory sqlite database so every
	// pooled connection sees the same data.
	os.Setenv("DB_TYPE", "sqlite")
	os.Setenv("DB_NAME", "file::memory:?cache=shared")
})
