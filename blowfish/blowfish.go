// Package blowfish implements the Blowfish block cipher: a 64-bit Feistel
// network with a key-dependent P-array and four key-dependent S-boxes,
// expanded from the user key by 521 self-encryptions (the Blowfish key
// schedule).
package blowfish

import (
	"encoding/binary"
	"errors"

	"github.com/laenix/bf64/blowfish/internal"
)

const (
	// BlockSize 是Blowfish处理的数据块大小（字节）
	BlockSize = 8
	// MinKeySize 是密钥的最小长度（字节）
	MinKeySize = 1
	// MaxKeySize 是密钥的最大长度（字节），对应算法规范的448位上限
	MaxKeySize = 56

	rounds = 16
)

// 错误定义
var (
	ErrInvalidKeySize   = errors.New("blowfish: 密钥长度必须在1-56字节之间")
	ErrInvalidBlockSize = errors.New("blowfish: 数据块必须是8字节")
)

// sink 是Clear用来阻止编译器把清零写操作当作死代码消除掉的目标；
// 没有其他代码读取它。
var sink uint32

// Cipher 持有一套已展开（或仍处于初始常量状态）的Blowfish工作表：
// 18项P盒和4×256项S盒。零值Cipher处于未初始化状态，使用前必须调用
// Init或New。
type Cipher struct {
	p [18]uint32
	s [4][256]uint32
}

// New 创建一个以key编排过的Cipher。key长度必须在[MinKeySize, MaxKeySize]之间。
func New(key []byte) (*Cipher, error) {
	if len(key) < MinKeySize || len(key) > MaxKeySize {
		return nil, ErrInvalidKeySize
	}
	c := &Cipher{}
	c.Init()
	c.expandKey(key)
	return c, nil
}

// BlockSize 返回块大小（字节）
func (c *Cipher) BlockSize() int { return BlockSize }

// Init 将P盒和S盒重置为Blowfish规范中π小数位的初始常量，丢弃任何
// 已经编排过的密钥状态。
func (c *Cipher) Init() {
	c.p = internal.PBox
	c.s[0] = internal.SBox0
	c.s[1] = internal.SBox1
	c.s[2] = internal.SBox2
	c.s[3] = internal.SBox3
}

// Clear 将P盒和S盒的每一项都置零，擦除密钥编排产生的敏感状态。
func (c *Cipher) Clear() {
	for i := range c.p {
		c.p[i] = 0
		sink = c.p[i]
	}
	for i := range c.s {
		for j := range c.s[i] {
			c.s[i][j] = 0
			sink = c.s[i][j]
		}
	}
}

// SetKey 用key对P盒和S盒执行密钥编排协议（先XOR阶段，再替换阶段）。
// 编排建立在调用时表里已有的值之上——与原始C实现相同，SetKey假定
// 表当前持有Init刚设置的初始常量。用新密钥重新编排同一个Cipher之前，
// 必须先显式调用Init；否则XOR阶段会作用在上一次编排的结果上而不是
// π常量上，产生未定义的密钥结果。key长度必须在
// [MinKeySize, MaxKeySize]之间。
func (c *Cipher) SetKey(key []byte) error {
	if len(key) < MinKeySize || len(key) > MaxKeySize {
		return ErrInvalidKeySize
	}
	c.expandKey(key)
	return nil
}

// expandKey 是密钥编排协议的核心：XOR阶段把key循环异或进P盒，
// 替换阶段从(0,0)开始用密码自身反复加密上一次的输出，依次重写P盒和S盒的每一项，
// 共计(18+4*256)/2 = 521次块加密。
func (c *Cipher) expandKey(key []byte) {
	keyIndex := 0
	for i := 0; i < len(c.p); i++ {
		var word uint32
		for k := 0; k < 4; k++ {
			word = (word << 8) | uint32(key[keyIndex])
			keyIndex = (keyIndex + 1) % len(key)
		}
		c.p[i] ^= word
	}

	var l, r uint32
	for i := 0; i < len(c.p); i += 2 {
		l, r = c.EncryptBlock(l, r)
		c.p[i] = l
		c.p[i+1] = r
	}
	for box := range c.s {
		for i := 0; i < len(c.s[box]); i += 2 {
			l, r = c.EncryptBlock(l, r)
			c.s[box][i] = l
			c.s[box][i+1] = r
		}
	}
}

// f 是Blowfish的轮函数：把32位输入拆成4个字节，查4个S盒后用模2^32
// 加法和异或组合起来。
func (c *Cipher) f(x uint32) uint32 {
	a := x >> 24
	b := (x >> 16) & 0xFF
	d := (x >> 8) & 0xFF
	e := x & 0xFF
	return ((c.s[0][a] + c.s[1][b]) ^ c.s[2][d]) + c.s[3][e]
}

// EncryptBlock 加密一个以(l, r)两个32位半块表示的64位块，
// 按两轮展开的方式走完16轮Feistel网络，再做输出白化和最终交换。
func (c *Cipher) EncryptBlock(l, r uint32) (uint32, uint32) {
	for i := 0; i < rounds; i += 2 {
		l ^= c.p[i]
		r ^= c.f(l)
		r ^= c.p[i+1]
		l ^= c.f(r)
	}
	l ^= c.p[16]
	r ^= c.p[17]
	return r, l
}

// DecryptBlock 解密一个以(l, r)两个32位半块表示的64位块，
// 按反向顺序两轮展开地走完Feistel网络，再做输出白化和最终交换。
func (c *Cipher) DecryptBlock(l, r uint32) (uint32, uint32) {
	for i := rounds; i >= 2; i -= 2 {
		l ^= c.p[i+1]
		r ^= c.f(l)
		r ^= c.p[i]
		l ^= c.f(r)
	}
	l ^= c.p[1]
	r ^= c.p[0]
	return r, l
}

// Encrypt64 加密一个大端打包的64位块：高32位是l半块，低32位是r半块。
func (c *Cipher) Encrypt64(data uint64) uint64 {
	l, r := c.EncryptBlock(uint32(data>>32), uint32(data))
	return uint64(l)<<32 | uint64(r)
}

// Decrypt64 解密一个大端打包的64位块：高32位是l半块，低32位是r半块。
func (c *Cipher) Decrypt64(data uint64) uint64 {
	l, r := c.DecryptBlock(uint32(data>>32), uint32(data))
	return uint64(l)<<32 | uint64(r)
}

// Encrypt 加密单个8字节块
func (c *Cipher) Encrypt(block []byte) ([]byte, error) {
	if len(block) != BlockSize {
		return nil, ErrInvalidBlockSize
	}
	out := make([]byte, BlockSize)
	binary.BigEndian.PutUint64(out, c.Encrypt64(binary.BigEndian.Uint64(block)))
	return out, nil
}

// Decrypt 解密单个8字节块
func (c *Cipher) Decrypt(block []byte) ([]byte, error) {
	if len(block) != BlockSize {
		return nil, ErrInvalidBlockSize
	}
	out := make([]byte, BlockSize)
	binary.BigEndian.PutUint64(out, c.Decrypt64(binary.BigEndian.Uint64(block)))
	return out, nil
}
