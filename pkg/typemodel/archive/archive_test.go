package archive

import (
	"archive/zip"
	"bytes"
	"encoding/binary"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ejb-verifier/pkg/typemodel"
)

// minimalClass 构造一个没有成员的 public 类
func minimalClass(internal string) []byte {
	var b bytes.Buffer
	w := func(v any) { _ = binary.Write(&b, binary.BigEndian, v) }
	utf8 := func(s string) {
		w(uint8(1))
		w(uint16(len(s)))
		b.WriteString(s)
	}

	w(uint32(0xCAFEBABE))
	w(uint16(0))
	w(uint16(49))
	w(uint16(5))
	utf8(internal) // #1
	w(uint8(7))    // #2 Class -> #1
	w(uint16(1))
	utf8("java/lang/Object") // #3
	w(uint8(7))              // #4 Class -> #3
	w(uint16(3))
	w(uint16(0x0021))
	w(uint16(2))
	w(uint16(4))
	w(uint16(0)) // interfaces
	w(uint16(0)) // fields
	w(uint16(0)) // methods
	w(uint16(0)) // attributes
	return b.Bytes()
}

func buildJar(t *testing.T, entries map[string][]byte) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, data := range entries {
		f, err := zw.Create(name)
		require.NoError(t, err)
		_, err = f.Write(data)
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

var jarEntries = map[string][]byte{
	"META-INF/ejb-jar.xml":       []byte("<ejb-jar/>"),
	"com/acme/AccountBean.class": minimalClass("com/acme/AccountBean"),
	"com/acme/Broken.class":      []byte("not a class"),
	"com/acme/Liar.class":        minimalClass("com/acme/Other"),
}

func TestArchiveFromBytes(t *testing.T) {
	a, err := FromBytes("memory.jar", buildJar(t, jarEntries))
	require.NoError(t, err)
	defer a.Close()

	t.Run("加载类", func(t *testing.T) {
		c, err := a.LoadClass("com.acme.AccountBean")
		require.NoError(t, err)
		assert.Equal(t, typemodel.ObjectClass, c.SuperName)
		assert.True(t, c.Flags.IsPublic())

		again, err := a.LoadClass("com.acme.AccountBean")
		require.NoError(t, err)
		assert.Same(t, c, again)
	})

	t.Run("类未找到", func(t *testing.T) {
		_, err := a.LoadClass("com.acme.Missing")
		assert.True(t, errors.Is(err, typemodel.ErrClassNotFound))
	})

	t.Run("损坏的 class 文件", func(t *testing.T) {
		_, err := a.LoadClass("com.acme.Broken")
		assert.True(t, errors.Is(err, typemodel.ErrMalformedClass))
		assert.False(t, errors.Is(err, typemodel.ErrClassNotFound))
	})

	t.Run("类名与条目不一致", func(t *testing.T) {
		_, err := a.LoadClass("com.acme.Liar")
		assert.True(t, errors.Is(err, typemodel.ErrMalformedClass))
	})

	t.Run("读取描述符", func(t *testing.T) {
		data, err := a.ReadFile("META-INF/ejb-jar.xml")
		require.NoError(t, err)
		assert.Equal(t, "<ejb-jar/>", string(data))
		assert.True(t, a.Has("META-INF/ejb-jar.xml"))
		assert.False(t, a.Has("META-INF/ejb-jar.yaml"))

		_, err = a.Open("META-INF/ejb-jar.yaml")
		assert.True(t, errors.Is(err, ErrEntryNotFound))
	})

	t.Run("类名列表", func(t *testing.T) {
		names, err := a.ClassNames()
		require.NoError(t, err)
		assert.Equal(t, []string{"com.acme.AccountBean", "com.acme.Broken", "com.acme.Liar"}, names)
	})
}

func TestDigest(t *testing.T) {
	first, err := FromBytes("a.jar", buildJar(t, jarEntries))
	require.NoError(t, err)
	second, err := FromBytes("b.jar", buildJar(t, jarEntries))
	require.NoError(t, err)
	assert.Len(t, first.Digest(), 64)
	assert.Equal(t, first.Digest(), second.Digest(), "摘要只取决于内容")

	changed := map[string][]byte{"META-INF/ejb-jar.xml": []byte("<ejb-jar></ejb-jar>")}
	third, err := FromBytes("c.jar", buildJar(t, changed))
	require.NoError(t, err)
	assert.NotEqual(t, first.Digest(), third.Digest())
}

func TestOpenDirectoryAndJar(t *testing.T) {
	dir := t.TempDir()

	exploded := filepath.Join(dir, "exploded")
	require.NoError(t, os.MkdirAll(filepath.Join(exploded, "com", "acme"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(exploded, "META-INF"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(exploded, "com", "acme", "AccountBean.class"),
		jarEntries["com/acme/AccountBean.class"], 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(exploded, "META-INF", "ejb-jar.xml"),
		jarEntries["META-INF/ejb-jar.xml"], 0o644))

	jarPath := filepath.Join(dir, "app.jar")
	require.NoError(t, os.WriteFile(jarPath, buildJar(t, map[string][]byte{
		"META-INF/ejb-jar.xml":       jarEntries["META-INF/ejb-jar.xml"],
		"com/acme/AccountBean.class": jarEntries["com/acme/AccountBean.class"],
	}), 0o644))

	dirArchive, err := Open(exploded)
	require.NoError(t, err)
	defer dirArchive.Close()
	jarArchive, err := Open(jarPath)
	require.NoError(t, err)
	defer jarArchive.Close()

	assert.Equal(t, dirArchive.Digest(), jarArchive.Digest(), "展开目录与 jar 摘要一致")

	for _, a := range []*Archive{dirArchive, jarArchive} {
		_, err := a.LoadClass("com.acme.AccountBean")
		assert.NoError(t, err, a.Location())
		f, err := a.Open("META-INF/ejb-jar.xml")
		require.NoError(t, err)
		data, _ := io.ReadAll(f)
		f.Close()
		assert.Equal(t, "<ejb-jar/>", string(data))
	}

	t.Run("类路径", func(t *testing.T) {
		loader, archives, err := OpenClasspath([]string{exploded, jarPath})
		require.NoError(t, err)
		defer func() {
			for _, a := range archives {
				a.Close()
			}
		}()
		assert.Len(t, archives, 2)
		_, err = loader.LoadClass("com.acme.AccountBean")
		assert.NoError(t, err)

		_, _, err = OpenClasspath([]string{filepath.Join(dir, "missing.jar")})
		assert.Error(t, err)
	})

	t.Run("非 zip 文件", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.jar")
		require.NoError(t, os.WriteFile(bad, []byte("plain text"), 0o644))
		_, err := Open(bad)
		assert.Error(t, err)
	})
}

func TestEntryName(t *testing.T) {
	assert.Equal(t, "com/acme/Outer$Inner.class", EntryName("com.acme.Outer$Inner"))
}
