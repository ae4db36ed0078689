// Package dummydb provides in-memory repositories for tests and local runs.
// They honor the same filter and error contracts as the sql-backed ones.
package dummydb

import (
	"sync"

	"github.com/mwalimu/shule/core"
	"github.com/mwalimu/shule/core/exam"
	"github.com/mwalimu/shule/core/policy"
	"github.com/mwalimu/shule/core/subject"
	"github.com/mwalimu/shule/core/user"
)

type DB struct {
	mu sync.RWMutex

	roles    map[int]user.Role
	users    map[int]user.User
	subjects map[int]subject.Subject
	exams    map[int]exam.Exam

	roleSeq    int
	userSeq    int
	subjectSeq int
	examSeq    int
}

// Open returns a fresh store with the reference roles already seeded.
func Open() *DB {
	db := &DB{
		roles:    make(map[int]user.Role),
		users:    make(map[int]user.User),
		subjects: make(map[int]subject.Subject),
		exams:    make(map[int]exam.Exam),
	}
	for _, name := range policy.AllRoles {
		db.roleSeq++
		db.roles[db.roleSeq] = user.Role{ID: db.roleSeq, Name: name}
	}
	return db
}

// matchVal applies an equality filter; []int conditions match any element.
func matchVal(cond, val interface{}) bool {
	if ids, ok := cond.([]int); ok {
		for _, id := range ids {
			if matchVal(id, val) {
				return true
			}
		}
		return false
	}
	return cond == val
}

func matches(where map[string]interface{}, field func(key string) interface{}) bool {
	for key, cond := range where {
		if !matchVal(cond, field(key)) {
			return false
		}
	}
	return true
}

// pageBounds clamps the requested page to the result size. A zero limit means
// everything.
func pageBounds(n int, args core.ListArgs) (lo, hi int) {
	if args.Limit <= 0 {
		return 0, n
	}
	lo = args.Offset
	if lo > n {
		lo = n
	}
	hi = lo + args.Limit
	if hi > n {
		hi = n
	}
	return lo, hi
}
