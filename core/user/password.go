package user

import (
	"crypto/rand"
	"math/big"
)

const (
	pwdLowers   = "abcdefghijkmnopqrstuvwxyz"
	pwdUppers   = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	pwdDigits   = "23456789"
	pwdSpecials = "!@#$%*?-_+"
)

// GeneratePassword returns a random temporary password that satisfies the password policy
// for a user with the given attributes.
func GeneratePassword(name, uname, email string) (string, error) {
	for {
		pwd, err := randomPassword(12)
		if err != nil {
			return "", err
		}
		if checkPassword(pwd, name, uname, email) == "" {
			return pwd, nil
		}
	}
}

func randomPassword(n int) (string, error) {
	sets := []string{pwdLowers, pwdUppers, pwdDigits, pwdSpecials}
	all := pwdLowers + pwdUppers + pwdDigits + pwdSpecials

	buf := make([]byte, n)
	for i := range buf {
		set := all
		if i < len(sets) {
			set = sets[i] // one of each class
		}
		c, err := randChar(set)
		if err != nil {
			return "", err
		}
		buf[i] = c
	}

	// shuffle so the class order is not predictable
	for i := len(buf) - 1; i > 0; i-- {
		j, err := rand.Int(rand.Reader, big.NewInt(int64(i+1)))
		if err != nil {
			return "", err
		}
		buf[i], buf[j.Int64()] = buf[j.Int64()], buf[i]
	}
	return string(buf), nil
}

func randChar(set string) (byte, error) {
	idx, err := rand.Int(rand.Reader, big.NewInt(int64(len(set))))
	if err != nil {
		return 0, err
	}
	return set[idx.Int64()], nil
}
