// Package testutil provides shared fixtures for pipeline tests.
package testutil

import (
	"os"
	"path/filepath"
	"testing"
)

// WriteDatasetFixtures writes the six source CSV files into dir with a small
// consistent dataset:
//
//   - three delivered orders: o1 ($100, Jan 2023, 2-day delivery, score 5),
//     o2 ($50, Jan 2023, 8-day delivery, no review),
//     o3 ($200, Feb 2023, 7-day delivery, score 4)
//   - one shipped order (o4) and one canceled order (o5)
//   - one orphan order item referencing a missing order
//   - a duplicate review for o1 with a later creation date
func WriteDatasetFixtures(t testing.TB, dir string) {
	t.Helper()

	files := map[string]string{
		"orders_dataset.csv": `order_id,customer_id,order_status,order_purchase_timestamp,order_approved_at,order_delivered_carrier_date,order_delivered_customer_date,order_estimated_delivery_date
o1,c1,delivered,2023-01-05 10:00:00,2023-01-05 11:00:00,2023-01-06 09:00:00,2023-01-07 10:00:00,2023-01-12 00:00:00
o2,c2,delivered,2023-01-20 08:00:00,2023-01-20 09:00:00,2023-01-22 09:00:00,2023-01-28 08:00:00,2023-01-30 00:00:00
o3,c3,delivered,2023-02-10 12:00:00,2023-02-10 13:00:00,2023-02-12 09:00:00,2023-02-17 12:00:00,2023-02-20 00:00:00
o4,c1,shipped,2023-03-01 09:00:00,2023-03-01 10:00:00,2023-03-02 09:00:00,,2023-03-10 00:00:00
o5,c2,canceled,2022-12-15 15:00:00,,,,2022-12-24 00:00:00
`,
		"order_items_dataset.csv": `order_id,order_item_id,product_id,seller_id,price,freight_value
o1,1,p1,s1,100.00,10.00
o2,1,p2,s1,50.00,5.00
o3,1,p1,s2,200.00,20.00
o4,1,p2,s2,75.00,7.50
orphan,1,p1,s1,10.00,1.00
`,
		"products_dataset.csv": `product_id,product_category_name,product_weight_g,product_length_cm,product_height_cm,product_width_cm
p1,electronics,500,20,10,15
p2,furniture,12000,120,40,60
`,
		"customers_dataset.csv": `customer_id,customer_unique_id,customer_zip_code_prefix,customer_city,customer_state
c1,u1,94107,san francisco,CA
c2,u2,10001,new york,NY
c3,u3,73301,austin,TX
`,
		"order_reviews_dataset.csv": `review_id,order_id,review_score,review_creation_date,review_answer_timestamp
r1,o1,5,2023-01-10 00:00:00,2023-01-11 00:00:00
r2,o3,4,2023-02-20 00:00:00,2023-02-21 00:00:00
r3,o1,1,2023-01-15 00:00:00,2023-01-16 00:00:00
`,
		"order_payments_dataset.csv": `order_id,payment_sequential,payment_type,payment_installments,payment_value
o1,1,credit_card,1,110.00
o2,1,boleto,1,55.00
o3,1,credit_card,2,220.00
`,
	}

	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0644); err != nil {
			t.Fatalf("write fixture %s: %v", name, err)
		}
	}
}
