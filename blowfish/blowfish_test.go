package blowfish

import (
	"bytes"
	"encoding/hex"
	"testing"
)

// TestECBVectors 验证标准Blowfish测试向量（大端，16进制）
func TestECBVectors(t *testing.T) {
	testVectors := []struct {
		name       string
		key        string
		plaintext  string
		ciphertext string
	}{
		{"全零密钥和明文", "0000000000000000", "0000000000000000", "4EF997456198DD78"},
		{"全一密钥和明文", "FFFFFFFFFFFFFFFF", "FFFFFFFFFFFFFFFF", "51866FD5B85ECB8A"},
		{"混合密钥和明文", "3000000000000000", "1000000000000001", "7D856F9A613063F2"},
		{"八字节递增密钥", "0123456789ABCDEF", "1111111111111111", "61F9C3802281B096"},
	}

	for _, tt := range testVectors {
		t.Run(tt.name, func(t *testing.T) {
			key, err := hex.DecodeString(tt.key)
			if err != nil {
				t.Fatalf("无法解码密钥: %v", err)
			}
			plaintext, err := hex.DecodeString(tt.plaintext)
			if err != nil {
				t.Fatalf("无法解码明文: %v", err)
			}
			expected, err := hex.DecodeString(tt.ciphertext)
			if err != nil {
				t.Fatalf("无法解码期望密文: %v", err)
			}

			cipher, err := New(key)
			if err != nil {
				t.Fatalf("创建Cipher失败: %v", err)
			}

			got, err := cipher.Encrypt(plaintext)
			if err != nil {
				t.Fatalf("加密失败: %v", err)
			}
			if !bytes.Equal(got, expected) {
				t.Errorf("加密结果不匹配\n预期: %x\n实际: %x", expected, got)
			}

			decrypted, err := cipher.Decrypt(got)
			if err != nil {
				t.Fatalf("解密失败: %v", err)
			}
			if !bytes.Equal(decrypted, plaintext) {
				t.Errorf("解密结果与原始明文不匹配\n预期: %x\n实际: %x", plaintext, decrypted)
			}
		})
	}
}

// TestRoundTripBlock 验证对任意密钥和任意块都有 decrypt(encrypt(b)) == b
func TestRoundTripBlock(t *testing.T) {
	keys := [][]byte{
		[]byte("a"),
		[]byte("shortkey"),
		[]byte("a reasonably long passphrase used as a key"),
		bytes.Repeat([]byte{0xAB}, MaxKeySize),
	}
	blocks := []uint64{
		0x0000000000000000,
		0xFFFFFFFFFFFFFFFF,
		0x0123456789ABCDEF,
		0xDEADBEEFCAFEBABE,
	}

	for _, key := range keys {
		cipher, err := New(key)
		if err != nil {
			t.Fatalf("创建Cipher失败（密钥长度%d）: %v", len(key), err)
		}
		for _, block := range blocks {
			ct := cipher.Encrypt64(block)
			pt := cipher.Decrypt64(ct)
			if pt != block {
				t.Errorf("密钥长度%d下块0x%016X往返失败，得到0x%016X", len(key), block, pt)
			}
		}
	}
}

// TestKeyScheduleDeterminism 验证同一密钥编排出的表是确定且相同的
func TestKeyScheduleDeterminism(t *testing.T) {
	key := []byte("deterministic-key-material")
	a, err := New(key)
	if err != nil {
		t.Fatalf("创建Cipher a失败: %v", err)
	}
	b, err := New(append([]byte(nil), key...))
	if err != nil {
		t.Fatalf("创建Cipher b失败: %v", err)
	}

	if a.p != b.p {
		t.Error("相同密钥编排出的P盒不一致")
	}
	if a.s != b.s {
		t.Error("相同密钥编排出的S盒不一致")
	}

	block := uint64(0x1122334455667788)
	if a.Encrypt64(block) != b.Encrypt64(block) {
		t.Error("相同密钥编排出的密码对同一明文块产生了不同的密文")
	}
}

// TestClearZeroesState 验证Clear之后所有P盒和S盒项都是0
func TestClearZeroesState(t *testing.T) {
	cipher, err := New([]byte("clear-me"))
	if err != nil {
		t.Fatalf("创建Cipher失败: %v", err)
	}
	cipher.Clear()

	for i, v := range cipher.p {
		if v != 0 {
			t.Errorf("Clear后P盒[%d]不为0: %#x", i, v)
		}
	}
	for box := range cipher.s {
		for i, v := range cipher.s[box] {
			if v != 0 {
				t.Errorf("Clear后S盒[%d][%d]不为0: %#x", box, i, v)
			}
		}
	}
}

// TestInitResetsToConstants 验证Init之后表是Init-Init之间确定性相同的
func TestInitResetsToConstants(t *testing.T) {
	a := &Cipher{}
	a.Init()
	b := &Cipher{}
	b.Init()

	if a.p != b.p || a.s != b.s {
		t.Error("两次Init得到的初始常量不一致")
	}

	// 编排密钥后再次Init必须恢复到原始常量
	a.expandKey([]byte("anything"))
	if a.p == b.p {
		t.Fatal("测试前置条件失败：编排密钥后P盒不应与初始常量相同")
	}
	a.Init()
	if a.p != b.p || a.s != b.s {
		t.Error("Init未能把已编排的表恢复为初始常量")
	}
}

// TestInvalidKeySize 验证密钥长度校验
func TestInvalidKeySize(t *testing.T) {
	if _, err := New(nil); err != ErrInvalidKeySize {
		t.Errorf("空密钥应该返回ErrInvalidKeySize，实际: %v", err)
	}
	if _, err := New(bytes.Repeat([]byte{1}, MaxKeySize+1)); err != ErrInvalidKeySize {
		t.Errorf("超长密钥应该返回ErrInvalidKeySize，实际: %v", err)
	}
	cipher, err := New([]byte("ok"))
	if err != nil {
		t.Fatalf("创建Cipher失败: %v", err)
	}
	if err := cipher.SetKey(nil); err != ErrInvalidKeySize {
		t.Errorf("SetKey空密钥应该返回ErrInvalidKeySize，实际: %v", err)
	}
}

// TestInvalidBlockSize 验证Encrypt/Decrypt对块大小的校验
func TestInvalidBlockSize(t *testing.T) {
	cipher, err := New([]byte("ok"))
	if err != nil {
		t.Fatalf("创建Cipher失败: %v", err)
	}
	if _, err := cipher.Encrypt(make([]byte, 7)); err != ErrInvalidBlockSize {
		t.Errorf("7字节块加密应该返回ErrInvalidBlockSize，实际: %v", err)
	}
	if _, err := cipher.Decrypt(make([]byte, 9)); err != ErrInvalidBlockSize {
		t.Errorf("9字节块解密应该返回ErrInvalidBlockSize，实际: %v", err)
	}
}

func BenchmarkEncryptBlock(b *testing.B) {
	cipher, err := New([]byte("benchmark-key"))
	if err != nil {
		b.Fatalf("创建Cipher失败: %v", err)
	}
	var l, r uint32 = 1, 2
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		l, r = cipher.EncryptBlock(l, r)
	}
}

func BenchmarkEncrypt64(b *testing.B) {
	cipher, err := New([]byte("benchmark-key"))
	if err != nil {
		b.Fatalf("创建Cipher失败: %v", err)
	}
	var block uint64 = 0x0123456789ABCDEF
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		block = cipher.Encrypt64(block)
	}
}
