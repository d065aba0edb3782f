package notify

import (
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Message keys. The English text doubles as the key.
const (
	keyCommitted          = "Transaction completed"
	keyCommittedDesc      = "Transaction %s has been saved"
	keyOfflineSaved       = "Offline transaction saved"
	keyOfflineSavedDesc   = "The sale will be synced once the connection is back"
	keyOfflineFailed      = "Offline save failed"
	keyOfflineFailedDesc  = "The sale was not saved, please try again"
	keySynced             = "Transactions synced"
	keySyncedDesc         = "%d offline transactions were synced"
	keySyncPartial        = "Sync partially failed"
	keySyncPartialDesc    = "%d transactions will be retried"
	keyOffline            = "You are offline"
	keyOfflineDesc        = "Sales are saved locally until the connection is back"
	keyOnline             = "Back online"
	keyOnlineDesc         = "Syncing %d pending transactions"
	keyOutOfStock         = "Out of stock"
	keyOutOfStockDesc     = "%s is not available"
	keyInsufficient       = "Insufficient stock"
	keyInsufficientDesc   = "Only %[2]d left of %[1]s"
	keyInvalidDiscount    = "Invalid discount"
	keyInvalidDiscountDsc = "The discount cannot exceed the subtotal"
	keyEmptyCart          = "Cart is empty"
	keyEmptyCartDesc      = "Add a product before checking out"
	keyBusy               = "Checkout in progress"
	keyBusyDesc           = "Wait until the current checkout finishes"
	keyNoActor            = "Unknown cashier"
	keyNoActorDesc        = "Sign in before checking out"
	keyInvalidPayment     = "Invalid payment method"
	keyInvalidPaymentDesc = "Choose cash, card or other"
	keyFailed             = "Something went wrong"
)

var indonesian = map[string]string{
	keyCommitted:          "Transaksi berhasil",
	keyCommittedDesc:      "Transaksi %s telah disimpan",
	keyOfflineSaved:       "Transaksi offline berhasil",
	keyOfflineSavedDesc:   "Transaksi akan disinkronkan saat koneksi kembali",
	keyOfflineFailed:      "Gagal menyimpan transaksi offline",
	keyOfflineFailedDesc:  "Transaksi tidak tersimpan, silakan coba lagi",
	keySynced:             "Transaksi tersinkronisasi",
	keySyncedDesc:         "%d transaksi offline berhasil disinkronkan",
	keySyncPartial:        "Sinkronisasi sebagian gagal",
	keySyncPartialDesc:    "%d transaksi akan dicoba lagi",
	keyOffline:            "Anda sedang offline",
	keyOfflineDesc:        "Transaksi disimpan di perangkat sampai koneksi kembali",
	keyOnline:             "Kembali online",
	keyOnlineDesc:         "Menyinkronkan %d transaksi tertunda",
	keyOutOfStock:         "Stok kosong",
	keyOutOfStockDesc:     "%s tidak tersedia",
	keyInsufficient:       "Stok tidak cukup",
	keyInsufficientDesc:   "Stok %[1]s hanya tersisa %[2]d",
	keyInvalidDiscount:    "Diskon tidak valid",
	keyInvalidDiscountDsc: "Diskon tidak boleh melebihi subtotal",
	keyEmptyCart:          "Keranjang kosong",
	keyEmptyCartDesc:      "Tambahkan produk sebelum checkout",
	keyBusy:               "Checkout sedang berlangsung",
	keyBusyDesc:           "Tunggu hingga checkout selesai",
	keyNoActor:            "Kasir tidak dikenal",
	keyNoActorDesc:        "Masuk terlebih dahulu sebelum checkout",
	keyInvalidPayment:     "Metode pembayaran tidak valid",
	keyInvalidPaymentDesc: "Pilih tunai, kartu atau lainnya",
	keyFailed:             "Terjadi kesalahan",
}

func init() {
	for key, msg := range indonesian {
		message.SetString(language.Indonesian, key, msg)
		message.SetString(language.English, key, key)
	}
}

// Localizer builds toasts in one language.
type Localizer struct {
	p   *message.Printer
	tag language.Tag
	now func() time.Time
}

// NewLocalizer returns a localizer for locale ("id" or "en").
// Anything else falls back to Indonesian.
func NewLocalizer(locale string) *Localizer {
	tag := language.Indonesian
	if t, err := language.Parse(locale); err == nil {
		if base, _ := t.Base(); base.String() == "en" {
			tag = language.English
		}
	}
	return &Localizer{p: message.NewPrinter(tag), tag: tag, now: time.Now}
}

// Language returns the localizer's language tag.
func (l *Localizer) Language() language.Tag {
	return l.tag
}

func (l *Localizer) toast(level Level, title, desc string, args ...any) Toast {
	t := Toast{Level: level, Title: l.p.Sprintf(title), At: l.now()}
	if desc != "" {
		t.Description = l.p.Sprintf(desc, args...)
	}
	return t
}

// Committed reports an online sale.
func (l *Localizer) Committed(id string) Toast {
	return l.toast(LevelSuccess, keyCommitted, keyCommittedDesc, id)
}

// OfflineSaved reports a sale queued locally.
func (l *Localizer) OfflineSaved() Toast {
	return l.toast(LevelInfo, keyOfflineSaved, keyOfflineSavedDesc)
}

// OfflineSaveFailed reports a sale that could not be queued.
func (l *Localizer) OfflineSaveFailed() Toast {
	return l.toast(LevelError, keyOfflineFailed, keyOfflineFailedDesc)
}

// Synced reports a sync pass that emptied the queue.
func (l *Localizer) Synced(n int) Toast {
	return l.toast(LevelSuccess, keySynced, keySyncedDesc, n)
}

// SyncPartial reports a sync pass that left failed items queued.
func (l *Localizer) SyncPartial(failed int) Toast {
	return l.toast(LevelWarning, keySyncPartial, keySyncPartialDesc, failed)
}

// WentOffline reports a transition to offline.
func (l *Localizer) WentOffline() Toast {
	return l.toast(LevelWarning, keyOffline, keyOfflineDesc)
}

// BackOnline reports a transition to online with pending sales.
func (l *Localizer) BackOnline(pending int) Toast {
	return l.toast(LevelInfo, keyOnline, keyOnlineDesc, pending)
}

// OutOfStock reports an add rejected for a product with no stock.
func (l *Localizer) OutOfStock(product string) Toast {
	return l.toast(LevelError, keyOutOfStock, keyOutOfStockDesc, product)
}

// InsufficientStock reports a quantity above the available stock.
func (l *Localizer) InsufficientStock(product string, available int) Toast {
	return l.toast(LevelError, keyInsufficient, keyInsufficientDesc, product, available)
}

// InvalidDiscount reports a rejected discount.
func (l *Localizer) InvalidDiscount() Toast {
	return l.toast(LevelError, keyInvalidDiscount, keyInvalidDiscountDsc)
}

// EmptyCart reports a checkout with nothing in the cart.
func (l *Localizer) EmptyCart() Toast {
	return l.toast(LevelError, keyEmptyCart, keyEmptyCartDesc)
}

// CheckoutBusy reports a request made while a checkout is running.
func (l *Localizer) CheckoutBusy() Toast {
	return l.toast(LevelWarning, keyBusy, keyBusyDesc)
}

// NoActor reports a checkout without a cashier.
func (l *Localizer) NoActor() Toast {
	return l.toast(LevelError, keyNoActor, keyNoActorDesc)
}

// InvalidPayment reports an unknown payment method.
func (l *Localizer) InvalidPayment() Toast {
	return l.toast(LevelError, keyInvalidPayment, keyInvalidPaymentDesc)
}

// Failed reports any other error with its message as description.
func (l *Localizer) Failed(detail string) Toast {
	return Toast{Level: LevelError, Title: l.p.Sprintf(keyFailed), Description: detail, At: l.now()}
}
