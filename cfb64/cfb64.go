// Package cfb64 implements a 64-bit Cipher Feedback (CFB64) streaming mode
// built on top of the blowfish block engine. It uses the block cipher as a
// pseudorandom function over a 64-bit feedback register and XORs its output
// against the input bytes, which lets it encrypt or decrypt byte sequences
// of any length without padding.
package cfb64

import (
	"encoding/binary"

	"github.com/laenix/bf64/blowfish"
)

// blockSize 是CFB64反馈寄存器的大小（字节），等于Blowfish的块大小
const blockSize = 8

// blockEncrypter 是CFB64层依赖的最小契约：把64位寄存器当作伪随机函数的
// 单块加密原语。blowfish.Cipher满足这个接口。
type blockEncrypter interface {
	Encrypt64(data uint64) uint64
}

// State 持有对一个块密码的引用以及一个64位反馈寄存器。cipher在两种
// 方式下被构造：借用（Init/New，调用方拥有底层密码）或独占持有
// （Create，State拥有底层密码并负责销毁时清零它）。State不检查借用的
// cipher是否已经编排过密钥：调用方必须在加密前完成密钥编排。
type State struct {
	cipher   blockEncrypter
	owned    *blowfish.Cipher
	feedback uint64
}

// New 用一个外部拥有的*blowfish.Cipher和初始反馈值（IV）构造一个State。
// 调用方仍然拥有cipher：Destroy不会清除或释放它。
func New(cipher *blowfish.Cipher, iv uint64) *State {
	s := &State{}
	s.Init(cipher, iv)
	return s
}

// Init 用外部拥有的cipher和IV（重新）设置state的字段，等价于New但不分配。
func (s *State) Init(cipher *blowfish.Cipher, iv uint64) {
	s.cipher = cipher
	s.owned = nil
	s.feedback = iv
}

// Create 分配一个新的blowfish.Cipher，用key编排它，并构造一个独占持有
// 这个cipher的State。key长度必须在[blowfish.MinKeySize, blowfish.MaxKeySize]之间。
func Create(key []byte, iv uint64) (*State, error) {
	cipher, err := blowfish.New(key)
	if err != nil {
		return nil, err
	}
	return &State{cipher: cipher, owned: cipher, feedback: iv}, nil
}

// SetIV 覆盖反馈寄存器，随时可以调用，与是否已经加密过无关。
func (s *State) SetIV(iv uint64) {
	s.feedback = iv
}

// Destroy 把反馈寄存器清零；如果State独占持有底层cipher，还会清除
// cipher的P盒和S盒（blowfish.Cipher.Clear），并释放对它的引用。
// 借用构造（Init/New）的cipher不受影响。
func (s *State) Destroy() {
	s.feedback = 0
	if s.owned != nil {
		s.owned.Clear()
		s.owned = nil
	}
	s.cipher = nil
}

// Encrypt 原地加密data：把反馈寄存器喂给底层密码产生密钥流，与明文异或，
// 并把产生的密文写回data、同时滚动反馈寄存器。长度为0的data是空操作。
func (s *State) Encrypt(data []byte) {
	feedback := s.feedback
	n := len(data)
	full := n / blockSize

	for i := 0; i < full; i++ {
		feedback = s.cipher.Encrypt64(feedback)
		off := i * blockSize
		plain := binary.BigEndian.Uint64(data[off : off+blockSize])
		cipherText := feedback ^ plain
		binary.BigEndian.PutUint64(data[off:off+blockSize], cipherText)
		feedback = cipherText
	}

	if rem := n % blockSize; rem > 0 {
		feedback = s.cipher.Encrypt64(feedback)
		off := n - rem
		plain := loadPartial(data[off:n]) << (uint(blockSize-rem) * 8)
		cipherText := feedback ^ plain
		storePartial(data[off:n], cipherText)
		feedback = cipherText
	}

	s.feedback = feedback
}

// Decrypt 原地解密data：与Encrypt对称，同样用Encrypt64（而不是解密
// 原语）把反馈寄存器变成密钥流，因为CFB双向都把密码当作伪随机函数用；
// 明文/密文之间的关系是异或，不需要求逆。
func (s *State) Decrypt(data []byte) {
	feedback := s.feedback
	n := len(data)
	full := n / blockSize

	for i := 0; i < full; i++ {
		feedback = s.cipher.Encrypt64(feedback)
		off := i * blockSize
		cipherText := binary.BigEndian.Uint64(data[off : off+blockSize])
		plain := cipherText ^ feedback
		binary.BigEndian.PutUint64(data[off:off+blockSize], plain)
		feedback = cipherText
	}

	if rem := n % blockSize; rem > 0 {
		feedback = s.cipher.Encrypt64(feedback)
		off := n - rem
		cipherText := loadPartial(data[off:n]) << (uint(blockSize-rem) * 8)
		plain := cipherText ^ feedback
		storePartial(data[off:n], plain)
		feedback = cipherText
	}

	s.feedback = feedback
}

// loadPartial 把长度小于blockSize的剩余字节按大端打包进uint64的低位，
// 高位为零；调用方再把结果左移到高位。
func loadPartial(rem []byte) uint64 {
	var v uint64
	for _, b := range rem {
		v = v<<8 | uint64(b)
	}
	return v
}

// storePartial 把value的高len(rem)个字节（大端）写回rem。
func storePartial(rem []byte, value uint64) {
	shift := uint(blockSize-1) * 8
	for i := range rem {
		rem[i] = byte(value >> shift)
		shift -= 8
	}
}
