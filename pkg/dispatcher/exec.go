package dispatcher

import (
	"github.com/korthochain/kvm/pkg/codec"
	"github.com/korthochain/kvm/pkg/storage/store"
	kmath "github.com/korthochain/kvm/pkg/util/math"
)

func init() {
	dealRegister[codec.OpPut] = dealPut
	dealRegister[codec.OpGet] = dealGet
	dealRegister[codec.OpDelete] = dealDelete
	dealRegister[codec.OpList] = dealList
	dealRegister[codec.OpCount] = dealCount
}

// PUT k v
func dealPut(st store.Store, req codec.Request) (codec.Reply, error) {
	if err := st.Put(req.Key, req.Value); err != nil {
		return codec.BadRequest(), err
	}
	return codec.Ok(), nil
}

// GET k
// A missing key is answered with BadRequest; the protocol has no
// separate not-found status.
func dealGet(st store.Store, req codec.Request) (codec.Reply, error) {
	v, err := st.Get(req.Key)
	switch {
	case err == store.ErrNotExist:
		return codec.BadRequest(), nil
	case err != nil:
		return codec.BadRequest(), err
	}
	return codec.OkValue(v), nil
}

// DEL k
func dealDelete(st store.Store, req codec.Request) (codec.Reply, error) {
	if _, err := st.Delete(req.Key); err != nil {
		return codec.BadRequest(), err
	}
	return codec.Ok(), nil
}

// LIST
func dealList(st store.Store, _ codec.Request) (codec.Reply, error) {
	keys, err := st.List()
	if err != nil {
		return codec.BadRequest(), err
	}
	return codec.OkKeys(keys), nil
}

// COUNT
func dealCount(st store.Store, _ codec.Request) (codec.Reply, error) {
	n, err := kmath.LenUint32(st.Count())
	if err != nil {
		return codec.BadRequest(), err
	}
	return codec.OkCount(n), nil
}
