package gdpr

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang/glog"

	"github.com/prebid/prebid-privacy-server/errortypes"
)

// RefreshableVendorListStore is a vendor list store that remembers the versions it could not serve.
type RefreshableVendorListStore interface {
	VendorListFetcher
	Generation() string
	MissingVersions() []int
}

// VendorListRefresher retries the vendor list versions that missed the cache of each store. It implements
// task.Runner so it can be scheduled with a TickerTask.
type VendorListRefresher struct {
	stores  []RefreshableVendorListStore
	timeout time.Duration
}

func NewVendorListRefresher(timeout time.Duration, stores ...RefreshableVendorListStore) *VendorListRefresher {
	return &VendorListRefresher{
		stores:  stores,
		timeout: timeout,
	}
}

// Run fetches every missing version once. Versions still inside their backoff window are skipped by the
// stores themselves.
func (r *VendorListRefresher) Run() error {
	var errs []error
	for _, store := range r.stores {
		for _, version := range store.MissingVersions() {
			if err := r.refresh(store, version); err != nil {
				glog.Infof("Vendor list %s version %d is still unavailable: %v", store.Generation(), version, err)
				errs = append(errs, fmt.Errorf("%s version %d: %w", store.Generation(), version, err))
			}
		}
	}

	if len(errs) > 0 {
		return errortypes.NewAggregateErrors(fmt.Sprintf("%d vendor list versions could not be refreshed", len(errs)), errs)
	}
	return nil
}

func (r *VendorListRefresher) refresh(store RefreshableVendorListStore, version int) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	list, err := store.ForVersion(ctx, version)
	if err != nil {
		return err
	}
	if list == nil {
		return errors.New("no vendor list served")
	}
	if served := int(list.Version()); served != version {
		return fmt.Errorf("served fallback vendor list version %d", served)
	}
	return nil
}
