package deployer

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ejb-verifier/pkg/config"
	"ejb-verifier/pkg/metadata"
	"ejb-verifier/pkg/report"
	"ejb-verifier/pkg/report/cache"
)

const classes = `
classes:
  - name: com.acme.Teller
    kind: interface
    interfaces: [javax.ejb.EJBObject]
    methods:
      - {name: deposit, params: [double], returns: double, throws: [java.rmi.RemoteException]}
  - name: com.acme.TellerHome
    kind: interface
    interfaces: [javax.ejb.EJBHome]
    methods:
      - {name: create, returns: com.acme.Teller, throws: [javax.ejb.CreateException, java.rmi.RemoteException]}
  - name: com.acme.TellerBean
    interfaces: [javax.ejb.SessionBean]
    methods:
      - {name: ejbCreate}
      - {name: deposit, params: [double], returns: double}
  - name: com.acme.AuditBean
    modifiers: [public, final]
    interfaces: [javax.ejb.MessageDrivenBean, javax.jms.MessageListener]
    methods:
      - {name: ejbCreate}
      - {name: onMessage, params: [javax.jms.Message]}
`

const descriptor = `
version: "2.0"
beans:
  - session:
      ejb-name: Teller
      ejb-class: com.acme.TellerBean
      home: com.acme.TellerHome
      remote: com.acme.Teller
      session-type: Stateless
  - message-driven:
      ejb-name: Audit
      ejb-class: com.acme.AuditBean
`

const tellerOnly = `
version: "2.0"
beans:
  - session:
      ejb-name: Teller
      ejb-class: com.acme.TellerBean
      home: com.acme.TellerHome
      remote: com.acme.Teller
      session-type: Stateless
`

// fixture 创建符号表文件与展开目录形式的部署单元
func fixture(t *testing.T, desc string) (symbols, dir string) {
	t.Helper()
	root := t.TempDir()
	symbols = filepath.Join(root, "classes.yaml")
	require.NoError(t, os.WriteFile(symbols, []byte(classes), 0o600))

	dir = filepath.Join(root, "bank")
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "META-INF"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, DescriptorYAML), []byte(desc), 0o600))
	return symbols, dir
}

type memoryStore struct {
	mu    sync.Mutex
	saved []*report.Report
	err   error
}

func (s *memoryStore) Save(_ context.Context, r *report.Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.saved = append(s.saved, r)
	return nil
}

func sections(r *report.Report) []string {
	var out []string
	for _, b := range r.Beans {
		for _, v := range b.Violations {
			out = append(out, v.Section)
		}
	}
	return out
}

func TestNew(t *testing.T) {
	t.Run("未知版本", func(t *testing.T) {
		_, err := New(config.VerifierConfig{Version: "3.0"})
		assert.ErrorIs(t, err, metadata.ErrInvalidDescriptor)
	})

	t.Run("符号表不存在", func(t *testing.T) {
		_, err := New(config.VerifierConfig{SymbolTables: []string{filepath.Join(t.TempDir(), "none.yaml")}})
		assert.Error(t, err)
	})
}

func TestVerifyArchive(t *testing.T) {
	symbols, dir := fixture(t, descriptor)
	store := &memoryStore{}
	d, err := New(config.VerifierConfig{SymbolTables: []string{symbols}}, WithStore(store))
	require.NoError(t, err)

	r, err := d.VerifyArchive(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, dir, r.Archive)
	assert.NotEmpty(t, r.Digest)
	assert.Equal(t, metadata.Version20, r.Version)
	assert.False(t, r.Passed())
	assert.Equal(t, []string{"15.7.2.d"}, sections(r))

	teller, ok := r.Bean("Teller")
	require.True(t, ok)
	assert.True(t, teller.Verified)

	require.Len(t, store.saved, 1)
	assert.Equal(t, r.ID, store.saved[0].ID)
}

func TestVersionOverride(t *testing.T) {
	symbols, dir := fixture(t, descriptor)
	d, err := New(config.VerifierConfig{Version: "1.1", SymbolTables: []string{symbols}})
	require.NoError(t, err)

	r, err := d.VerifyArchive(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, metadata.Version11, r.Version)
	// 1.1 没有消息驱动 Bean
	assert.Equal(t, []string{"16.1"}, sections(r))
}

func TestCache(t *testing.T) {
	symbols, dir := fixture(t, descriptor)
	store := &memoryStore{}
	mem := cache.NewMemory()
	d, err := New(config.VerifierConfig{SymbolTables: []string{symbols}}, WithStore(store), WithCache(mem))
	require.NoError(t, err)

	first, err := d.VerifyArchive(context.Background(), dir)
	require.NoError(t, err)
	second, err := d.VerifyArchive(context.Background(), dir)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 1, mem.Len())
	assert.Len(t, store.saved, 1, "命中缓存时不重复保存")

	t.Run("选项不同不共享缓存", func(t *testing.T) {
		strict, err := New(config.VerifierConfig{SymbolTables: []string{symbols}, StrictPrimaryKey: true}, WithCache(mem))
		require.NoError(t, err)
		third, err := strict.VerifyArchive(context.Background(), dir)
		require.NoError(t, err)
		assert.NotEqual(t, first.ID, third.ID)
		assert.Equal(t, 2, mem.Len())
	})
}

func TestDeploy(t *testing.T) {
	t.Run("未通过时拒绝部署", func(t *testing.T) {
		symbols, dir := fixture(t, descriptor)
		d, err := New(config.VerifierConfig{SymbolTables: []string{symbols}})
		require.NoError(t, err)
		r, err := d.Deploy(context.Background(), dir)
		assert.ErrorIs(t, err, ErrRefused)
		require.NotNil(t, r)
		assert.False(t, r.Passed())
	})

	t.Run("全部通过", func(t *testing.T) {
		symbols, dir := fixture(t, tellerOnly)
		d, err := New(config.VerifierConfig{SymbolTables: []string{symbols}})
		require.NoError(t, err)
		r, err := d.Deploy(context.Background(), dir)
		require.NoError(t, err)
		assert.True(t, r.Passed())
	})
}

func TestVerifyErrors(t *testing.T) {
	d, err := New(config.VerifierConfig{})
	require.NoError(t, err)

	t.Run("没有描述符", func(t *testing.T) {
		_, err := d.VerifyArchive(context.Background(), t.TempDir())
		assert.ErrorIs(t, err, ErrNoDescriptor)
	})

	t.Run("描述符无效", func(t *testing.T) {
		_, dir := fixture(t, "version: \"9.9\"\n")
		_, err := d.VerifyArchive(context.Background(), dir)
		assert.ErrorIs(t, err, metadata.ErrInvalidDescriptor)
	})

	t.Run("部署单元不存在", func(t *testing.T) {
		_, err := d.VerifyArchive(context.Background(), filepath.Join(t.TempDir(), "none.jar"))
		assert.Error(t, err)
	})

	t.Run("上下文已取消", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := d.VerifyArchive(ctx, t.TempDir())
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("保存失败", func(t *testing.T) {
		symbols, dir := fixture(t, tellerOnly)
		failing, err := New(config.VerifierConfig{SymbolTables: []string{symbols}},
			WithStore(&memoryStore{err: errors.New("disk full")}))
		require.NoError(t, err)
		_, err = failing.VerifyArchive(context.Background(), dir)
		assert.ErrorContains(t, err, "disk full")
	})

	t.Run("额外类路径不存在", func(t *testing.T) {
		_, dir := fixture(t, tellerOnly)
		cp, err := New(config.VerifierConfig{Classpath: []string{filepath.Join(t.TempDir(), "lib.jar")}})
		require.NoError(t, err)
		_, err = cp.VerifyArchive(context.Background(), dir)
		assert.ErrorContains(t, err, "open classpath")
	})
}

func TestVerifyBytes(t *testing.T) {
	symbols, _ := fixture(t, tellerOnly)
	d, err := New(config.VerifierConfig{SymbolTables: []string{symbols}})
	require.NoError(t, err)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	f, err := zw.Create(DescriptorYAML)
	require.NoError(t, err)
	_, err = f.Write([]byte(tellerOnly))
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	r, err := d.VerifyBytes(context.Background(), "upload.jar", buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "upload.jar", r.Archive)
	assert.True(t, r.Passed())

	_, err = d.VerifyBytes(context.Background(), "junk.jar", []byte("not a zip"))
	assert.Error(t, err)
}
